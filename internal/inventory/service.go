// Package inventory wires the search pipeline to storage: it owns the
// reference catalog lifecycle, compiles requests, executes them and caches
// results.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/querysql"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/search"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

// Errors returned by lookups. They alias the storage sentinels so callers
// need not import storage.
var (
	ErrNotFound     = storage.ErrNotFound
	ErrAmbiguousVIN = storage.ErrAmbiguousVIN
)

// VehicleFinder executes compiled vehicle statements.
type VehicleFinder interface {
	Find(ctx context.Context, stmt querysql.Statement) ([]storage.Vehicle, error)
	FindOne(ctx context.Context, stmt querysql.Statement) (storage.Vehicle, error)
	FindModel(ctx context.Context, stmt querysql.Statement) (storage.Vehicle, error)
}

// StoreLister lists dealership locations.
type StoreLister interface {
	All(ctx context.Context) ([]storage.Dealership, error)
}

// invalidator is implemented by catalog sources backed by a shared cache.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Options tunes the service.
type Options struct {
	Search         search.Options
	CacheResults   bool
	ResultTTL      time.Duration
	LoadTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Search:         search.DefaultOptions(),
		ResultTTL:      2 * time.Minute,
		LoadTimeout:    10 * time.Second,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// Deps are the collaborators of a Service. Cache may be nil.
type Deps struct {
	Catalog  *catalog.Store
	Source   catalog.Source
	Compiler *querysql.Compiler
	Vehicles VehicleFinder
	Stores   StoreLister
	Cache    cache.Client
	Logger   *observability.Logger
}

// Service answers inventory queries.
type Service struct {
	catalog  *catalog.Store
	source   catalog.Source
	compiler *querysql.Compiler
	vehicles VehicleFinder
	stores   StoreLister
	cache    cache.Client
	logger   *observability.Logger
	opts     Options
}

// NewService creates a service. Zero option fields take their defaults.
func NewService(deps Deps, opts Options) *Service {
	def := DefaultOptions()
	if opts.Search.MaxSortOptions <= 0 {
		opts.Search = def.Search
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = def.ResultTTL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = def.LoadTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = def.MaxBackoff
	}

	if deps.Catalog == nil {
		deps.Catalog = catalog.NewStore()
	}
	if deps.Compiler == nil {
		deps.Compiler = querysql.NewCompiler(querysql.SQLite)
	}
	if deps.Logger == nil {
		deps.Logger = observability.Nop()
	}

	return &Service{
		catalog:  deps.Catalog,
		source:   deps.Source,
		compiler: deps.Compiler,
		vehicles: deps.Vehicles,
		stores:   deps.Stores,
		cache:    deps.Cache,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// Ready reports whether the reference catalog is loaded.
func (s *Service) Ready() bool {
	return s.catalog.Ready()
}

// InitCatalog performs one bounded catalog load. It is a no-op once the
// catalog is ready.
func (s *Service) InitCatalog(ctx context.Context) error {
	if s.catalog.Ready() {
		return nil
	}
	if s.source == nil {
		return errors.New("initialize catalog: no catalog source configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := s.catalog.Init(ctx, s.source); err != nil {
		s.logger.Error().Err(err).Msg("Reference catalog load failed")
		return fmt.Errorf("initialize catalog: %w", err)
	}

	cat := s.catalog.Current()
	s.logger.Info().
		Int("makes", len(cat.Makes())).
		Int("models", len(cat.Models())).
		Dur("duration", time.Since(start)).
		Msg("Reference catalog loaded")
	return nil
}

// KeepCatalogWarm retries InitCatalog with exponential backoff until the
// catalog is ready or ctx ends.
func (s *Service) KeepCatalogWarm(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := s.InitCatalog(ctx)
		if err == nil {
			return nil
		}

		wait := backoff(attempt, s.opts.InitialBackoff, s.opts.MaxBackoff)
		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("retry_in", wait).
			Msg("Catalog not ready, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RefreshCatalogCache drops the shared catalog copy so the next process to
// start reads the database. It does not replace this process's catalog.
func (s *Service) RefreshCatalogCache(ctx context.Context) error {
	inv, ok := s.source.(invalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// backoff is initial * 2^attempt, capped at ceiling.
func backoff(attempt int, initial, ceiling time.Duration) time.Duration {
	d := float64(initial) * math.Pow(2, float64(attempt))
	if d > float64(ceiling) {
		d = float64(ceiling)
	}
	return time.Duration(d)
}

// Catalog returns a snapshot of the reference catalog.
func (s *Service) Catalog() catalog.View {
	return s.catalog.Current().View()
}

// AdvancedResult is the outcome of one advanced search.
type AdvancedResult struct {
	Vehicles     []storage.Vehicle   `json:"vehicles"`
	Filter       search.Filter       `json:"filter"`
	Diagnostics  []search.Diagnostic `json:"diagnostics,omitempty"`
	CatalogReady bool                `json:"catalog_ready"`
	Statement    querysql.Statement  `json:"-"`
}

// Explanation is a compiled advanced search that was not executed.
type Explanation struct {
	Filter       search.Filter       `json:"filter"`
	Diagnostics  []search.Diagnostic `json:"diagnostics,omitempty"`
	CatalogReady bool                `json:"catalog_ready"`
	SQL          string              `json:"sql"`
	Args         []any               `json:"args"`
}

// Advanced runs an advanced search. Rejected parameters never fail the
// request: they are logged and returned as diagnostics.
func (s *Service) Advanced(ctx context.Context, params url.Values) (*AdvancedResult, error) {
	res, stmt, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.find(ctx, "advanced", stmt)
	if err != nil {
		return nil, fmt.Errorf("advanced search: %w", err)
	}

	return &AdvancedResult{
		Vehicles:     vehicles,
		Filter:       res.Filter,
		Diagnostics:  res.Diagnostics,
		CatalogReady: res.CatalogReady,
		Statement:    stmt,
	}, nil
}

// Explain compiles an advanced search without running it.
func (s *Service) Explain(ctx context.Context, params url.Values) (*Explanation, error) {
	res, stmt, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		Filter:       res.Filter,
		Diagnostics:  res.Diagnostics,
		CatalogReady: res.CatalogReady,
		SQL:          stmt.SQL,
		Args:         stmt.Args,
	}, nil
}

func (s *Service) prepare(ctx context.Context, params url.Values) (search.Result, querysql.Statement, error) {
	log := s.logger.WithContext(ctx).WithOperation("advanced_search")

	res := search.Parse(params, s.catalog.Current(), s.opts.Search)
	if !res.CatalogReady {
		log.Error().Msg("Reference catalog unavailable, categorical filters rejected")
	}

	plan := search.Compile(res.Filter)
	res.Diagnostics = append(res.Diagnostics, plan.Diagnostics...)
	for _, d := range res.Diagnostics {
		log.Warn().
			Str("field", d.Field).
			Str("value", d.Value).
			Str("reason", string(d.Reason)).
			Msg("Search parameter dropped")
	}

	stmt, err := s.compiler.Compile(plan.Query)
	if err != nil {
		return res, querysql.Statement{}, fmt.Errorf("render advanced search: %w", err)
	}
	return res, stmt, nil
}

// Basic runs a keyword search.
func (s *Service) Basic(ctx context.Context, text string) ([]storage.Vehicle, error) {
	vehicles, err := s.run(ctx, "basic", search.Keyword(text))
	if err != nil {
		return nil, fmt.Errorf("basic search: %w", err)
	}
	return vehicles, nil
}

// Category lists every used and new vehicle of one model.
func (s *Service) Category(ctx context.Context, model string) ([]storage.Vehicle, error) {
	vehicles, err := s.run(ctx, "category", search.Category(model))
	if err != nil {
		return nil, fmt.Errorf("category search: %w", err)
	}
	return vehicles, nil
}

// UsedVehicle returns the used vehicle with vin.
func (s *Service) UsedVehicle(ctx context.Context, vin string) (storage.Vehicle, error) {
	stmt, err := s.compiler.Compile(search.UsedByVIN(vin))
	if err != nil {
		return storage.Vehicle{}, fmt.Errorf("render used vehicle lookup: %w", err)
	}
	v, err := s.vehicles.FindOne(ctx, stmt)
	if err != nil {
		return storage.Vehicle{}, fmt.Errorf("used vehicle %s: %w", vin, err)
	}
	return v, nil
}

// NewVehicle returns a new model with its inventory at every store.
func (s *Service) NewVehicle(ctx context.Context, model string) (storage.Vehicle, error) {
	stmt, err := s.compiler.Compile(search.NewByModel(model))
	if err != nil {
		return storage.Vehicle{}, fmt.Errorf("render new vehicle lookup: %w", err)
	}
	v, err := s.vehicles.FindModel(ctx, stmt)
	if err != nil {
		return storage.Vehicle{}, fmt.Errorf("new vehicle %s: %w", model, err)
	}
	return v, nil
}

// Stores lists every dealership.
func (s *Service) Stores(ctx context.Context) ([]storage.Dealership, error) {
	stores, err := s.stores.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (s *Service) run(ctx context.Context, kind string, q queryir.Query) ([]storage.Vehicle, error) {
	stmt, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return s.find(ctx, kind, stmt)
}

// find executes stmt, reading through the result cache when enabled. Cache
// failures are logged and bypassed.
func (s *Service) find(ctx context.Context, kind string, stmt querysql.Statement) ([]storage.Vehicle, error) {
	if s.cache == nil || !s.opts.CacheResults {
		return s.vehicles.Find(ctx, stmt)
	}

	key := cache.SearchKey(kind, stmt.Fingerprint())
	var cached []storage.Vehicle
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	switch {
	case err == nil:
		s.logger.Debug().Str("key", key).Msg("Search cache hit")
		return cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn().Err(err).Str("key", key).Msg("Search cache read failed")
	}

	vehicles, err := s.vehicles.Find(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, vehicles, s.opts.ResultTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Search cache write failed")
	}
	return vehicles, nil
}
