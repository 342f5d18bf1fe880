package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/roamio/roamio/internal/auth"
	"github.com/roamio/roamio/internal/config"
	"github.com/roamio/roamio/internal/event"
	handler "github.com/roamio/roamio/internal/handler/http"
	"github.com/roamio/roamio/internal/notifier"
	"github.com/roamio/roamio/internal/repository/postgres"
	"github.com/roamio/roamio/internal/repository/rediscache"
	"github.com/roamio/roamio/internal/service"
	"github.com/roamio/roamio/internal/storage"
	"github.com/roamio/roamio/internal/storage/localdisk"
	"github.com/roamio/roamio/internal/storage/memory"
	"github.com/roamio/roamio/migrations"
	"github.com/roamio/roamio/pkg/database"
	"github.com/roamio/roamio/pkg/health"
	pkgkafka "github.com/roamio/roamio/pkg/kafka"
	"github.com/roamio/roamio/pkg/tracing"
)

// App wires together all dependencies and runs the Roamio API server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "roamio-api",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "roamio")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for the experience read cache.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	experienceRepo := postgres.NewExperienceRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)

	experienceCache := rediscache.NewExperienceCache(redisClient, cfg.CacheTTL)
	eventProducer := event.NewProducer(producer, logger)

	// Photo blob storage.
	var store storage.Storage
	var photoDir string
	switch cfg.StorageBackend {
	case "local":
		local, err := localdisk.New(cfg.StorageLocalDir, cfg.BaseURL())
		if err != nil {
			redisClient.Close()
			pool.Close()
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		store = local
		photoDir = cfg.StorageLocalDir
	default:
		store = memory.New(cfg.BaseURL())
	}

	experienceService := service.NewExperienceService(experienceRepo, locationRepo, experienceCache, store, eventProducer, logger)
	bookingService := service.NewBookingService(bookingRepo, experienceRepo, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, bookingRepo, experienceRepo, eventProducer, logger)

	credentials := auth.NewCredentials(cfg.AdminEmail, cfg.AdminPasswordHash)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL())

	// Booking response notifications.
	var consumer *pkgkafka.Consumer
	if cfg.NotifierEnabled {
		var sender notifier.Sender
		if cfg.NotifyWebhookURL != "" {
			sender = notifier.NewWebhookSender(cfg.NotifyWebhookURL, logger)
		} else {
			sender = notifier.NewLogSender(logger)
		}
		notifyHandler := notifier.NewHandler(sender, logger)
		consumer = notifier.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, notifyHandler, logger)
		logger.Info("notifier initialized",
			slog.String("sender", sender.Name()),
			slog.String("group", cfg.KafkaConsumerGroup),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	// The cache is optional: reads fall through to Postgres when it is gone.
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ExperienceService: experienceService,
		BookingService:    bookingService,
		ReviewService:     reviewService,
		CategoryRepo:      categoryRepo,
		LocationRepo:      locationRepo,
		Credentials:       credentials,
		JWTManager:        jwtManager,
		HealthHandler:     healthHandler,
		Logger:            logger,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		PprofCIDRs:        cfg.PprofAllowedCIDRs,
		PhotoDir:          photoDir,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		consumer:       consumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the notification consumer, then blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
