package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Marrmee/spark-voucherd/internal/allocation"
	"github.com/Marrmee/spark-voucherd/internal/config"
	httpserver "github.com/Marrmee/spark-voucherd/internal/http"
	"github.com/Marrmee/spark-voucherd/internal/http/middleware"
	"github.com/Marrmee/spark-voucherd/internal/metrics"
	"github.com/Marrmee/spark-voucherd/internal/repository"
	"github.com/Marrmee/spark-voucherd/internal/verification"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories and services
	vouchersRepo := repository.NewVouchersRepository(db)
	verifyClient := verification.NewClient(verification.Config{
		Endpoint: cfg.VerifyEndpoint,
		Timeout:  cfg.VerifyTimeout,
	})
	m := metrics.New()

	allocationService := allocation.NewService(allocation.Config{
		VerifyBaseURL:    cfg.VerifyBaseURL,
		AssignmentWindow: cfg.AssignmentWindow,
		MaxAttempts:      cfg.MaxAttempts,
	}, vouchersRepo, verifyClient, m, logger)

	// The sweeper runs at the start of every allocation request; a timer
	// keeps the pool tidy during quiet periods when configured.
	sweepDone := make(chan struct{})
	if cfg.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepDone:
					return
				case <-ticker.C:
					if err := allocationService.Sweep(context.Background()); err != nil {
						logger.Error("background sweep failed", "error", err)
					}
				}
			}
		}()
		logger.Info("background sweeper enabled", "interval", cfg.SweepInterval)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:            logger,
		AllocationService: allocationService,
		Auth: middleware.AuthConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
		},
		RateLimit:       cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		MaxRequestBody:  cfg.MaxRequestBodySize,
		RetryAfter:      cfg.RetryAfter,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	close(sweepDone)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
