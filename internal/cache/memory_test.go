package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryClient_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	in := []byte("value")
	require.NoError(t, c.Set(ctx, "k", in, time.Minute))
	in[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'Y'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	now = now.Add(2 * time.Second)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(2)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	require.NoError(t, c.Set(ctx, CatalogKey("lookups"), []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, CatalogKey("make_models"), []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, SearchKey("advanced", "f00"), []byte("c"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "catalog:"))
	assert.Equal(t, 1, c.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	type payload struct {
		Makes []string `json:"makes"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Makes: []string{"Ford"}}, time.Minute))

	var got payload
	require.NoError(t, GetJSON(ctx, c, "p", &got))
	assert.Equal(t, []string{"Ford"}, got.Makes)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.Error(t, GetJSON(ctx, c, "bad", &got))
}

func TestNew(t *testing.T) {
	c, err := New(Options{Driver: "memory"})
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &MemoryClient{}, c)

	_, err = New(Options{Driver: "memcached"})
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "a:b:c", CacheKey("a", "b", "c"))
	assert.Equal(t, "search:basic:xyz", SearchKey("basic", "xyz"))
}
