// Package main provides the Inventory Engine API server entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/inventory"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

func main() {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.OTEL.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting Inventory Engine API")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := inventory.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()

	applied, err := storage.NewMigrator(db, cfg.Database.Driver).Up(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Migrations failed")
	}
	if len(applied) > 0 {
		logger.Info().Strs("migrations", applied).Msg("Applied migrations")
	}

	cacheClient, err := inventory.NewCache(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Cache unavailable")
	}
	defer cacheClient.Close()

	svc := inventory.FromConfig(cfg, db, cacheClient, logger)

	// The server starts even without a catalog; /ready stays 503 and advanced
	// searches fail closed until the background loader succeeds.
	if err := svc.InitCatalog(ctx); err != nil {
		go func() {
			if err := svc.KeepCatalogWarm(ctx); err != nil {
				logger.Warn().Err(err).Msg("Catalog loader stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(logger, svc, RouterConfigFrom(cfg)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
