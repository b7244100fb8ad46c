package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire conflicts until release", func(t *testing.T) {
		g := NewInMemoryRunGuard()

		release, err := g.Acquire(ctx, "commission:2025-Q3", time.Minute)
		require.NoError(t, err)

		_, err = g.Acquire(ctx, "commission:2025-Q3", time.Minute)
		assert.True(t, errors.Is(err, shared.ErrConflict))

		_, err = g.Acquire(ctx, "commission:2025-Q4", time.Minute)
		assert.NoError(t, err)

		require.NoError(t, release(ctx))
		_, err = g.Acquire(ctx, "commission:2025-Q3", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("expired lease can be taken over", func(t *testing.T) {
		g := NewInMemoryRunGuard()
		now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		g.now = func() time.Time { return now }

		staleRelease, err := g.Acquire(ctx, "reconcile", time.Minute)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = g.Acquire(ctx, "reconcile", time.Minute)
		require.NoError(t, err)

		require.NoError(t, staleRelease(ctx))
		_, err = g.Acquire(ctx, "reconcile", time.Minute)
		assert.True(t, errors.Is(err, shared.ErrConflict), "stale release must not drop the new holder")
	})
}

func TestRedisRunGuard_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	_, err := NewRedisRunGuard(client).Acquire(context.Background(), "reconcile", time.Minute)
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrConflict))
	assert.Contains(t, err.Error(), "failed to acquire run guard reconcile")
}

func TestNoopRunGuard(t *testing.T) {
	release, err := shared.NoopRunGuard{}.Acquire(context.Background(), "any", time.Second)
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
}
