package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/democredit/internal/adapter/http/handler"
	"github.com/iho/democredit/internal/adapter/http/middleware"
	"github.com/iho/democredit/internal/infrastructure/metrics"
	"github.com/iho/democredit/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	AuthHandler        *handler.AuthHandler
	TransactionHandler *handler.TransactionHandler
	EntryHandler       *handler.EntryHandler
	HealthHandler      *handler.HealthHandler
	// LedgerHandler is mounted only when OpsToken is set.
	LedgerHandler *handler.LedgerHandler
	OpsToken      string

	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
	AllowedOrigins   []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
		ExposedHeaders:   []string{middleware.IdempotencyReplayHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	var idempotency func(http.Handler) http.Handler
	if cfg.IdempotencyStore != nil {
		var recorder middleware.IdempotencyRecorder
		if cfg.Metrics != nil {
			recorder = cfg.Metrics
		}
		idempotency = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, recorder).Wrap
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}
			if idempotency != nil {
				r.Use(idempotency)
			}
			r.Post("/create-user", cfg.AccountHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})

		// Account-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
			if idempotency != nil {
				r.Use(idempotency)
			}

			r.Put("/fund/{accountNo}", cfg.TransactionHandler.Fund)
			r.Put("/withdraw/{accountNo}", cfg.TransactionHandler.Withdraw)
			r.Put("/transfer/{accountNo}", cfg.TransactionHandler.Transfer)

			r.Get("/accounts/{accountNo}", cfg.AccountHandler.Get)
			r.Get("/accounts/{accountNo}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/accounts/{accountNo}/balance", cfg.EntryHandler.GetHistoricalBalance)
		})

		if cfg.LedgerHandler != nil && cfg.OpsToken != "" {
			r.Route("/ledger", func(r chi.Router) {
				r.Use(middleware.RequireOpsToken(cfg.OpsToken))
				r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
				r.Get("/accounts", cfg.AccountHandler.List)
				r.Get("/accounts/{accountNo}", cfg.LedgerHandler.ReconcileAccount)
			})
		}
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
