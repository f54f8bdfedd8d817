package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// SnapshotKey is the cache key holding the shared vocabulary.
var SnapshotKey = cache.CatalogKey("snapshot")

// Snapshot is both parts of the vocabulary as read together.
type Snapshot struct {
	Lists LookupLists `json:"lookups"`
	Pairs []MakeModel `json:"make_models"`
}

// snapshotter is implemented by sources that can return both parts of the
// vocabulary from one read.
type snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// CachedSource reads the vocabulary through a shared cache so several
// instances can warm up from one database read. Lists and pairs are cached
// as one value so a reader never mixes two loads.
type CachedSource struct {
	src    Source
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedSource wraps src with cache c.
func NewCachedSource(src Source, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedSource {
	if logger == nil {
		logger = observability.Nop()
	}
	return &CachedSource{src: src, cache: c, ttl: ttl, logger: logger}
}

// Snapshot returns the cached vocabulary, falling back to the wrapped
// source. Only complete snapshots are cached.
func (s *CachedSource) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := cache.GetJSON(ctx, s.cache, SnapshotKey, &snap)
	switch {
	case err == nil:
		s.logger.Debug().Str("key", SnapshotKey).Msg("catalog cache hit")
		return snap, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn().Err(err).Str("key", SnapshotKey).Msg("catalog cache read failed")
	}

	lists, err := s.src.LookupLists(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load lookup lists: %w", err)
	}
	pairs, err := s.src.MakeModels(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load make/model pairs: %w", err)
	}
	snap = Snapshot{Lists: lists, Pairs: pairs}

	if lists.complete() == nil {
		if err := cache.SetJSON(ctx, s.cache, SnapshotKey, snap, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", SnapshotKey).Msg("catalog cache write failed")
		}
	}
	return snap, nil
}

// LookupLists returns the lists of the current snapshot.
func (s *CachedSource) LookupLists(ctx context.Context) (LookupLists, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return LookupLists{}, err
	}
	return snap.Lists, nil
}

// MakeModels returns the pairs of the current snapshot.
func (s *CachedSource) MakeModels(ctx context.Context) ([]MakeModel, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Pairs, nil
}

// Invalidate drops the cached vocabulary.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.DeleteByPrefix(ctx, cache.CatalogKey(""))
}
