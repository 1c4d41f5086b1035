//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/lending/equity/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisPoolLocker_AcquireRelease(t *testing.T) {
	client := newRedisClient(t)
	locker := NewRedisPoolLocker(client, WithTTL(5*time.Second), WithRetryInterval(10*time.Millisecond))
	defer locker.Close()

	ctx := context.Background()
	release, err := locker.Acquire(ctx, "default")
	require.NoError(t, err)

	exists, err := client.Exists(ctx, defaultKeyPrefix+"default").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(waitCtx, "default")
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)

	release()

	exists, err = client.Exists(ctx, defaultKeyPrefix+"default").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestRedisPoolLocker_ExpiredLockNotStolen(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	first := NewRedisPoolLocker(client, WithTTL(50*time.Millisecond), WithRetryInterval(5*time.Millisecond))
	releaseFirst, err := first.Acquire(ctx, "default")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	second := NewRedisPoolLocker(client, WithTTL(5*time.Second))
	releaseSecond, err := second.Acquire(ctx, "default")
	require.NoError(t, err)

	// The stale holder must not delete the new holder's key.
	releaseFirst()

	exists, err := client.Exists(ctx, defaultKeyPrefix+"default").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	releaseSecond()
}
