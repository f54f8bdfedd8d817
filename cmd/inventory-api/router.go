package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-api/handlers"
	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-api/middleware"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// RouterConfig holds the HTTP settings the router needs.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigin     string
	RateLimit      config.RateLimitConfig
	OTELEnabled    bool
	ServiceName    string
}

// RouterConfigFrom extracts router settings from the application config.
func RouterConfigFrom(cfg *config.Config) RouterConfig {
	return RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigin:     cfg.Server.CORSOrigin,
		RateLimit:      cfg.RateLimit,
		OTELEnabled:    cfg.Observability.OTEL.Enabled,
		ServiceName:    cfg.Observability.OTEL.ServiceName,
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, service handlers.InventoryService, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.CORSOrigin != "" {
		r.Use(middleware.CORS(cfg.CORSOrigin))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	health := handlers.NewHealthHandler(logger, service)
	vehicles := handlers.NewVehicleHandler(logger, service)

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}

		r.Get("/catalog", health.Catalog)
		r.Get("/stores", vehicles.Stores)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/search", vehicles.Search)
			r.Get("/category/{model}", vehicles.Category)
			r.Get("/advanced", vehicles.Advanced)
			r.Post("/advanced", vehicles.Advanced)
			r.Get("/used/{vin}", vehicles.UsedVehicle)
			r.Get("/new/{model}", vehicles.NewVehicle)
		})
	})

	if cfg.OTELEnabled {
		return middleware.OTel(cfg.ServiceName)(r)
	}
	return r
}
