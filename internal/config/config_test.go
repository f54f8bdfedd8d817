package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 3, cfg.Search.MaxSortOptions)
	assert.Equal(t, "/tmp/inventory-engine.db", cfg.DatabaseDSN())
	assert.Equal(t, "0.0.0.0:8090", cfg.Addr())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  port: 9100
search:
  max_sort_options: 2
catalog:
  max_backoff: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Search.MaxSortOptions)
	assert.Equal(t, 5*time.Second, cfg.Catalog.MaxBackoff)
	// untouched sections keep defaults
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9200")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/inv?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SEARCH_MAX_SORT_OPTIONS", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/inv?sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Equal(t, 2, cfg.Search.MaxSortOptions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "requires a dsn"},
		{"bad cache", func(c *Config) { c.Cache.Driver = "memcached" }, "invalid cache driver"},
		{"sort options", func(c *Config) { c.Search.MaxSortOptions = 11 }, "max_sort_options"},
		{"rate limit", func(c *Config) { c.RateLimit.RPS = 0 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
