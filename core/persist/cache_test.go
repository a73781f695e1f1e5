package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"test-manifest/core/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoad(calls *int) LoadFunc {
	return func(context.Context) (*manifest.Store, error) {
		*calls++
		return manifest.New(""), nil
	}
}

func TestCache_ReusesWithinTTL(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	calls := 0
	first, err := c.Get(ctx, "file:MANIFEST.json", countingLoad(&calls))
	require.NoError(t, err)
	second, err := c.Get(ctx, "file:MANIFEST.json", countingLoad(&calls))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Minute)
	third, err := c.Get(ctx, "file:MANIFEST.json", countingLoad(&calls))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, calls)
}

func TestCache_ZeroTTLDisablesReuse(t *testing.T) {
	ctx := context.Background()
	c := NewCache(0)

	calls := 0
	_, err := c.Get(ctx, "k", countingLoad(&calls))
	require.NoError(t, err)
	_, err = c.Get(ctx, "k", countingLoad(&calls))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Zero(t, c.Len())
}

func TestCache_InvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Hour)

	calls := 0
	_, err := c.Get(ctx, "a", countingLoad(&calls))
	require.NoError(t, err)
	_, err = c.Get(ctx, "b", countingLoad(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.Invalidate("a")
	_, err = c.Get(ctx, "a", countingLoad(&calls))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestCache_PutReplacesEntry(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Hour)

	rebuilt := manifest.New("/rebuilt/")
	c.Put("k", rebuilt)

	calls := 0
	got, err := c.Get(ctx, "k", countingLoad(&calls))
	require.NoError(t, err)
	assert.Same(t, rebuilt, got)
	assert.Zero(t, calls)
}

func TestCache_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Hour)
	boom := errors.New("boom")

	_, err := c.Get(ctx, "k", func(context.Context) (*manifest.Store, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}
