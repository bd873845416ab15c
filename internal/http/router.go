package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Marrmee/spark-voucherd/internal/allocation"
	"github.com/Marrmee/spark-voucherd/internal/config"
	"github.com/Marrmee/spark-voucherd/internal/http/features/voucher"
	"github.com/Marrmee/spark-voucherd/internal/http/middleware"
	"github.com/Marrmee/spark-voucherd/internal/httputil"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger            *slog.Logger
	AllocationService *allocation.Service
	Auth              middleware.AuthConfig
	RateLimit         config.RateLimitConfig
	SecurityHeaders   config.SecurityHeadersConfig
	MaxRequestBody    int64
	RetryAfter        time.Duration
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBody))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	rateLimiter := middleware.CreateRateLimiter(cfg.RateLimit, cfg.Logger)

	voucherHandler := voucher.NewHandler(cfg.Logger, cfg.AllocationService, cfg.RetryAfter)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth))
		r.Use(rateLimiter)
		r.Post("/v1/vouchers/allocate", voucherHandler.Allocate)
		r.Get("/v1/vouchers/pool", voucherHandler.Pool)
	})

	return r
}
