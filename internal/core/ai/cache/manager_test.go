package cache

import (
	"context"
	"testing"
	"time"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxSize int) (*CacheManager, *time.Time) {
	t.Helper()
	m := NewManager(&config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: time.Minute})
	require.NotNil(t, m)
	t.Cleanup(func() { _ = m.Close() })

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestManager_SetGet(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "prompt", "answer"))
	val, err := m.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", val)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRatio)
}

func TestManager_Expiry(t *testing.T) {
	m, clock := newTestManager(t, 10)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "prompt", "answer"))
	*clock = clock.Add(2 * time.Minute)

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, m.GetStats().Size)
}

func TestManager_EvictsLeastUsed(t *testing.T) {
	m, clock := newTestManager(t, 2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	*clock = clock.Add(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(&config.CacheConfig{Enabled: false})
	assert.Nil(t, m)

	_, err := m.Get(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrCacheDisabled)
	assert.NoError(t, m.Set(context.Background(), "x", "y"))
	assert.NoError(t, m.Close())
}
