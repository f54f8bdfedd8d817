package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrIncompleteLookup is returned when a source omits one of the lookup lists.
var ErrIncompleteLookup = errors.New("incomplete lookup lists")

// Source supplies the raw vocabulary. LookupLists must return all four lists
// from a single consistent read.
type Source interface {
	LookupLists(ctx context.Context) (LookupLists, error)
	MakeModels(ctx context.Context) ([]MakeModel, error)
}

// Load reads both parts of the vocabulary from src. It returns a ready
// catalog or an error, never a partial catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	if ss, ok := src.(snapshotter); ok {
		snap, err := ss.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if err := snap.Lists.complete(); err != nil {
			return nil, err
		}
		return New(snap.Lists, snap.Pairs), nil
	}

	lists, err := src.LookupLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lookup lists: %w", err)
	}
	if err := lists.complete(); err != nil {
		return nil, err
	}

	pairs, err := src.MakeModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load make/model pairs: %w", err)
	}

	return New(lists, pairs), nil
}

func (l LookupLists) complete() error {
	var missing []string
	if l.BodyStyles == nil {
		missing = append(missing, "body styles")
	}
	if l.ExteriorColors == nil {
		missing = append(missing, "exterior colors")
	}
	if l.InteriorColors == nil {
		missing = append(missing, "interior colors")
	}
	if l.Locations == nil {
		missing = append(missing, "locations")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrIncompleteLookup, missing)
	}
	return nil
}

// Store publishes one catalog to concurrent readers. Until Init succeeds,
// Current returns an uninitialized catalog.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Catalog]
}

// NewStore creates a store serving an uninitialized catalog.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Current returns the published catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Ready reports whether a catalog has been published.
func (s *Store) Ready() bool {
	return s.Current().Ready()
}

// Init loads from src and publishes the result. After the first success
// further calls return nil without reading src.
func (s *Store) Init(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Ready() {
		return nil
	}

	c, err := Load(ctx, src)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}

// Publish installs an already built catalog if none is published yet.
// It reports whether c was installed.
func (s *Store) Publish(c *Catalog) bool {
	if !c.Ready() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Ready() {
		return false
	}
	s.current.Store(c)
	return true
}
