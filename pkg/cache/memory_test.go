package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryStoreExpiresLazily(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Second))

	var got string
	require.NoError(t, store.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	clock.Advance(1500 * time.Millisecond)
	err := store.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreExactExpiryStillServes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", 42, time.Second))
	clock.Advance(time.Second)

	var got int
	require.NoError(t, store.Get(ctx, "k", &got))
	assert.Equal(t, 42, got)
}

func TestMemoryStoreNoTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []string{"a"}, 0))
	clock.Advance(365 * 24 * time.Hour)

	var got []string
	require.NoError(t, store.Get(ctx, "k", &got))
	assert.Equal(t, []string{"a"}, got)
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "class:averages:1", 1, time.Minute))
	require.NoError(t, store.Set(ctx, "class:averages:2", 2, time.Minute))
	require.NoError(t, store.Set(ctx, "github:repos:octocat", 3, time.Minute))

	require.NoError(t, store.Delete(ctx, "class:averages:1"))
	var v int
	assert.ErrorIs(t, store.Get(ctx, "class:averages:1", &v), appErrors.ErrCacheMiss)

	require.NoError(t, store.DeletePattern(ctx, "class:*"))
	assert.ErrorIs(t, store.Get(ctx, "class:averages:2", &v), appErrors.ErrCacheMiss)
	require.NoError(t, store.Get(ctx, "github:repos:octocat", &v))
	assert.Equal(t, 3, v)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "first", time.Minute))
	require.NoError(t, store.Set(ctx, "k", "second", time.Minute))

	var got string
	require.NoError(t, store.Get(ctx, "k", &got))
	assert.Equal(t, "second", got)
}
