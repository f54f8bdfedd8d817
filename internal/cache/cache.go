// Package cache provides caching infrastructure for the Inventory Engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Options selects and configures a cache backend.
type Options struct {
	Driver     string // memory or redis
	MaxEntries int
	Redis      RedisConfig
}

// New builds the backend named by opts.Driver.
func New(opts Options) (Client, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryClient(opts.MaxEntries), nil
	case "redis":
		return NewRedisClient(opts.Redis)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", opts.Driver)
	}
}

// GetJSON reads key and decodes it into dst.
func GetJSON(ctx context.Context, c Client, key string, dst interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Client, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// CacheKey generates a cache key from components.
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// CatalogKey is the key for one part of the shared reference catalog.
func CatalogKey(part string) string {
	return CacheKey("catalog", part)
}

// SearchKey is the key for a cached search result, addressed by statement fingerprint.
func SearchKey(kind, fingerprint string) string {
	return CacheKey("search", kind, fingerprint)
}
