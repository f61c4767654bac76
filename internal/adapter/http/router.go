package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mver/payflow/internal/adapter/http/handler"
	"github.com/mver/payflow/internal/adapter/http/middleware"
	"github.com/mver/payflow/internal/infrastructure/auth"
	"github.com/mver/payflow/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	AuthHandler      *handler.AuthHandler
	TransferHandler  *handler.TransferHandler
	HealthHandler    *handler.HealthHandler
	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	LoginRateLimiter *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Open endpoints
		r.Post("/accounts", cfg.AccountHandler.Create)
		r.Group(func(r chi.Router) {
			if cfg.LoginRateLimiter != nil {
				r.Use(cfg.LoginRateLimiter.Limit)
			}
			r.Post("/auth/login", cfg.AuthHandler.Login)
		})

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))

			r.Get("/me", cfg.AccountHandler.Me)
			r.Get("/receivers", cfg.AccountHandler.Receivers)

			r.Route("/transfers", func(r chi.Router) {
				r.Post("/", cfg.TransferHandler.Create)
				r.Get("/", cfg.TransferHandler.List)
				r.Get("/{id}", cfg.TransferHandler.Get)
				r.Delete("/{id}", cfg.TransferHandler.Delete)
			})
		})
	})

	return r
}
