package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisLockerExcludesAndReleases(t *testing.T) {
	client := redisClient(t)
	locker := NewRedisLocker(client, 5*time.Second, zap.NewNop())
	key := ItemKey("redis-test-" + time.Now().Format("150405.000000"))

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	again, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestRedisLockerKeepsLockPastTTL(t *testing.T) {
	client := redisClient(t)
	locker := NewRedisLocker(client, 300*time.Millisecond, zap.NewNop())
	key := ItemKey("redis-refresh-" + time.Now().Format("150405.000000"))

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	time.Sleep(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "held lock must survive its ttl")

	unlock()
	exists, err := client.Exists(context.Background(), redisKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRefreshInterval(t *testing.T) {
	assert.Equal(t, 3*time.Second, refreshInterval(9*time.Second))
	assert.Equal(t, time.Millisecond, refreshInterval(time.Nanosecond))
}
