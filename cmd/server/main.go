// Package main provides the entry point for the paper search HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/roody/paperscout/internal/app"
	"github.com/roody/paperscout/internal/config"
	"github.com/roody/paperscout/internal/observability"
	"github.com/roody/paperscout/internal/server"
	"github.com/roody/paperscout/internal/sources"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paperscout server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("paperscout")
		metricsPath = cfg.Metrics.Path
	}

	// Wire the adapter registry and aggregator.
	identities := sources.NewIdentityPool(cfg.Politeness.UserAgents)
	registry := app.BuildRegistry(cfg, identities)
	aggregator := app.BuildAggregator(cfg, registry, logger, metrics)
	logger.Info().
		Int("sources_enabled", len(registry.EnabledTypes())).
		Msg("source registry ready")

	httpSrv := server.NewServer(server.Config{
		Address:      cfg.Server.HTTPAddress(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
	}, aggregator, registry, metrics, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", cfg.Server.HTTPAddress()).
		Msg("paperscout is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down paperscout")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("paperscout shutdown complete")
	return nil
}
