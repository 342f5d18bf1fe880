package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roamio/roamio/internal/auth"
	"github.com/roamio/roamio/internal/repository"
	"github.com/roamio/roamio/internal/service"
	"github.com/roamio/roamio/pkg/health"
	"github.com/roamio/roamio/pkg/middleware"
)

// RouterConfig bundles the dependencies needed to assemble the HTTP router.
type RouterConfig struct {
	ExperienceService *service.ExperienceService
	BookingService    *service.BookingService
	ReviewService     *service.ReviewService
	CategoryRepo      repository.CategoryRepository
	LocationRepo      repository.LocationRepository
	Credentials       *auth.Credentials
	JWTManager        *auth.JWTManager
	HealthHandler     *health.Handler
	Logger            *slog.Logger
	RateLimitRPS      int
	RateLimitBurst    int
	PprofCIDRs        []string

	// CORSAllowedOrigins lists browser origins allowed to call the API;
	// "*" allows any origin.
	CORSAllowedOrigins []string

	// PhotoDir, when set, is served read-only under /photos/.
	PhotoDir string
}

// NewRouter creates a chi router with all API routes registered. Public
// catalog and guest endpoints are rate limited per IP; admin endpoints
// require a valid access token with the admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("roamio"))
	r.Use(middleware.Tracing("roamio"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	// Serve uploaded photos when the local-disk storage backend is in use.
	if cfg.PhotoDir != "" {
		fs := http.StripPrefix("/photos/", http.FileServer(http.Dir(cfg.PhotoDir)))
		r.With(middleware.CacheControl(86400)).Get("/photos/*", fs.ServeHTTP)
	}

	experienceHandler := NewExperienceHandler(cfg.ExperienceService, cfg.Logger)
	bookingHandler := NewBookingHandler(cfg.BookingService, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)
	categoryHandler := NewCategoryHandler(cfg.CategoryRepo, cfg.Logger)
	locationHandler := NewLocationHandler(cfg.LocationRepo, cfg.Logger)
	authHandler := NewAuthHandler(cfg.Credentials, cfg.JWTManager, cfg.Logger)

	// Adapt the token manager to the middleware's validator contract.
	validateToken := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	// Public API endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))

		r.Post("/auth/login", authHandler.Login)

		r.Route("/experiences", func(r chi.Router) {
			r.Get("/", experienceHandler.ListExperiences)
			r.Get("/{id}", experienceHandler.GetExperience)
			r.Get("/{id}/reviews/summary", reviewHandler.GetReviewSummary)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.SubmitBooking)
			r.Get("/{id}", bookingHandler.GetBooking)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", reviewHandler.SubmitReview)
			r.Get("/", reviewHandler.ListReviews)
			r.Get("/{id}", reviewHandler.GetReview)
			r.Put("/{id}", reviewHandler.UpdateReview)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{id}", categoryHandler.GetCategory)
		})

		r.Route("/cities", func(r chi.Router) {
			r.Get("/", locationHandler.ListCities)
			r.Get("/{id}/districts", locationHandler.ListDistricts)
		})
	})

	// Admin API endpoints
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validateToken))
		r.Use(middleware.RequireRole(auth.AdminRole))

		r.Route("/experiences", func(r chi.Router) {
			r.Post("/", experienceHandler.CreateExperience)
			r.Put("/{id}", experienceHandler.UpdateExperience)
			r.Delete("/{id}", experienceHandler.DeleteExperience)
			r.Post("/{id}/photos", experienceHandler.AddPhoto)
			r.Post("/{id}/photos/upload", experienceHandler.UploadPhoto)
			r.Delete("/{id}/photos/{photoID}", experienceHandler.DeletePhoto)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", bookingHandler.ListBookings)
			r.Post("/{id}/respond", bookingHandler.RespondToBooking)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/{id}/moderate", reviewHandler.ModerateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})

		r.Route("/cities", func(r chi.Router) {
			r.Post("/", locationHandler.CreateCity)
			r.Put("/{id}", locationHandler.UpdateCity)
			r.Delete("/{id}", locationHandler.DeleteCity)
		})

		r.Route("/districts", func(r chi.Router) {
			r.Post("/", locationHandler.CreateDistrict)
			r.Put("/{id}", locationHandler.UpdateDistrict)
			r.Delete("/{id}", locationHandler.DeleteDistrict)
		})
	})

	return r
}
