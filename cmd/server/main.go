// Package main provides the entry point for the job feed API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maauso/jobfeed-api/internal/bootstrap"
	"github.com/maauso/jobfeed-api/internal/config"
	"github.com/maauso/jobfeed-api/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting job feed API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Int("fetch_concurrency", cfg.FetchConcurrency),
		slog.Duration("source_timeout", cfg.SourceTimeout()),
		slog.Duration("cycle_timeout", cfg.CycleTimeout()),
		slog.Bool("postgres_enabled", cfg.PostgresEnabled()),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
		slog.Bool("cache_enabled", cfg.CacheEnabled()),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start warm-up scheduler: %w", err)
		}
	}

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(deps.Sources, deps.Search, logger)
	router := server.NewRouter(handlers, deps.Tokens, logger, server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.CycleTimeout() + 10*time.Second, // A search waits for a full fetch cycle
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop()
	if deps.Scheduler != nil {
		deps.Scheduler.Stop(shutdownCtx)
	}

	logger.Info("shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
