package memcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)
	cache.Set("k", "v")

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)
	cache.SetWithTTL("k", "v", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)
	_, ok := cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewTTLCache(3, time.Minute)
	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
	}
	// Touch k0 so k1 becomes the eviction candidate.
	_, ok := cache.Get("k0")
	require.True(t, ok)

	cache.Set("k3", 3)
	assert.Equal(t, 3, cache.Len())

	_, ok = cache.Get("k1")
	assert.False(t, ok)
	_, ok = cache.Get("k0")
	assert.True(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)
	cache.Set("k", 1)
	cache.Set("k", 2)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheStats(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)
	cache.Set("k", "v")
	cache.Get("k")
	cache.Get("missing")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
