package inventory

import (
	"context"
	"database/sql"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/querysql"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/search"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

// OpenDatabase opens the database described by cfg.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	opts := storage.Options{Driver: cfg.Database.Driver, DSN: cfg.DatabaseDSN()}
	if cfg.Database.Driver == "postgres" {
		opts.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		opts.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		opts.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	} else {
		opts.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
		opts.JournalMode = cfg.Database.SQLite.JournalMode
	}
	return storage.Open(ctx, opts)
}

// NewCache builds the cache backend described by cfg.
func NewCache(cfg *config.Config) (cache.Client, error) {
	return cache.New(cache.Options{
		Driver:     cfg.Cache.Driver,
		MaxEntries: cfg.Cache.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		},
	})
}

// FromConfig wires a Service over db. With catalog.shared set, the
// vocabulary is read through c so instances can warm from one another.
func FromConfig(cfg *config.Config, db *sql.DB, c cache.Client, logger *observability.Logger) *Service {
	var source catalog.Source = storage.NewLookupRepository(db, cfg.Database.Driver)
	if cfg.Catalog.Shared && c != nil {
		source = catalog.NewCachedSource(source, c, cfg.Catalog.CacheTTL, logger)
	}

	return NewService(Deps{
		Source:   source,
		Compiler: querysql.NewCompiler(querysql.DialectFor(cfg.Database.Driver)),
		Vehicles: storage.NewVehicleRepository(storage.NewGateway(db)),
		Stores:   storage.NewDealershipRepository(db),
		Cache:    c,
		Logger:   logger,
	}, Options{
		Search:         search.Options{MaxSortOptions: cfg.Search.MaxSortOptions},
		CacheResults:   cfg.Search.CacheResults,
		ResultTTL:      cfg.Cache.TTL,
		LoadTimeout:    cfg.Catalog.LoadTimeout,
		InitialBackoff: cfg.Catalog.InitialBackoff,
		MaxBackoff:     cfg.Catalog.MaxBackoff,
	})
}
