package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/roamio/roamio/pkg/config"
)

// Config holds all configuration for the Roamio API server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"roamio"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"roamio_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"roamio_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (experience read cache)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cache TTL for experience reads.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"roamio-notifier"`

	// Photo storage ("local" writes files under StorageLocalDir, "memory"
	// keeps metadata only and is meant for development)
	StorageBackend  string `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageLocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/photos"`

	// PublicBaseURL is the externally visible base URL used in generated
	// photo links. Defaults to http://localhost:<HTTPPort>.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:""`

	// Notifications
	NotifierEnabled  bool   `env:"NOTIFIER_ENABLED" envDefault:"true"`
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL" envDefault:""`

	// JWT (admin sessions)
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"1h"`

	// Admin credentials. The password is stored as a bcrypt hash, never in plain text.
	AdminEmail        string `env:"ADMIN_EMAIL" envDefault:"admin@roamio.local"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH" envDefault:""`

	// Rate limiting (public endpoints)
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// OpenTelemetry tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS (browser origins allowed to call the API; "*" for development)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimitRPS)
	}
	if c.RateLimitBurst < c.RateLimitRPS {
		return fmt.Errorf("RATE_LIMIT_BURST (%d) must be >= RATE_LIMIT_RPS (%d)", c.RateLimitBurst, c.RateLimitRPS)
	}
	if _, err := time.ParseDuration(c.JWTAccessExpiry); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if c.StorageBackend != "local" && c.StorageBackend != "memory" {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", "local", "memory", c.StorageBackend)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}

	// In non-development environments, require an explicitly set, strong JWT
	// secret and a real admin password hash.
	if c.Environment != "development" {
		if c.JWTSecret == "change-this-to-a-secure-secret" {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be set in %q mode", c.Environment)
		}
	}
	return nil
}

// AccessTokenTTL returns the parsed JWT access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessExpiry)
	if err != nil {
		// validate() already rejected unparseable values.
		return time.Hour
	}
	return d
}

// BaseURL returns the externally visible base URL for generated links.
func (c *Config) BaseURL() string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL
	}
	return fmt.Sprintf("http://localhost:%d", c.HTTPPort)
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
