package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	require.NoError(t, c.Set(ctx, "thread:t-1", []byte(`{"id":"t-1"}`), time.Hour))

	value, found, err := c.Get(ctx, "thread:t-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"id":"t-1"}`), value)

	_, found, err = c.Get(ctx, "thread:t-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "thread:t-1", []byte("v"), time.Minute))

	_, found, err := c.Get(ctx, "thread:t-1")
	require.NoError(t, err)
	assert.True(t, found)

	current = current.Add(2 * time.Minute)
	_, found, err = c.Get(ctx, "thread:t-1")
	require.NoError(t, err)
	assert.False(t, found)
	// Expired entries drop on read.
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 1024, nil)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))

	// Touch "a" so "b" becomes the eviction candidate.
	_, _, err := c.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	_, found, _ := c.Get(ctx, "a")
	assert.True(t, found)
	_, found, _ = c.Get(ctx, "b")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "c")
	assert.True(t, found)
}

func TestMemoryCache_EvictsForMemoryBound(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(100, 20, nil)

	require.NoError(t, c.Set(ctx, "a", []byte("0123456789"), time.Hour)) // 11 bytes
	require.NoError(t, c.Set(ctx, "b", []byte("0123456789"), time.Hour)) // pushes "a" out

	_, found, _ := c.Get(ctx, "a")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "b")
	assert.True(t, found)
}

func TestMemoryCache_OversizedValueSkipped(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 8, nil)

	require.NoError(t, c.Set(ctx, "big", []byte("way too large to fit"), time.Hour))

	_, found, err := c.Get(ctx, "big")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	require.NoError(t, c.Set(ctx, "k", []byte("original"), time.Hour))

	value, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'X'

	again, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryCache_SetCopiesInput(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	input := []byte("original")
	require.NoError(t, c.Set(ctx, "k", input, time.Hour))
	input[0] = 'X'

	value, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), value)
}

func TestMemoryCache_OverwriteReplacesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	require.NoError(t, c.Set(ctx, "k", []byte("one"), time.Hour))
	require.NoError(t, c.Set(ctx, "k", []byte("two"), time.Hour))

	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("two"), value)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 1024, nil)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "long", []byte("v"), time.Hour))

	current = current.Add(10 * time.Minute)
	c.cleanupExpired()

	assert.Equal(t, 1, c.Len())
	_, found, _ := c.Get(ctx, "long")
	assert.True(t, found)
}
