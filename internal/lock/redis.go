package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix  = "lending:lock:"
	redisRetryDelay = 25 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

// RedisLocker shares locks between service instances through Redis. Held
// keys expire after ttl unless the holder is alive: a refresh loop extends
// them every ttl/3 until Unlock, so a slow transaction keeps its lock and a
// crashed instance loses it within ttl.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a locker whose keys expire after ttl.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

// Lock acquires every key, retrying until ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	if l.client == nil {
		return nil, errors.New("redis client not configured")
	}
	token := uuid.NewString()
	ordered := normalize(keys)
	held := make([]string, 0, len(ordered))
	for _, key := range ordered {
		if err := l.acquire(ctx, redisKeyPrefix+key, token); err != nil {
			l.releaseAll(held, token)
			return nil, err
		}
		held = append(held, redisKeyPrefix+key)
	}

	stop := make(chan struct{})
	refreshed := make(chan struct{})
	go l.refresh(held, token, stop, refreshed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-refreshed
			l.releaseAll(held, token)
		})
	}, nil
}

func refreshInterval(ttl time.Duration) time.Duration {
	return max(ttl/3, time.Millisecond)
}

// refresh extends every held key until stop is closed. A key that no longer
// carries token is reported and left alone.
func (l *RedisLocker) refresh(keys []string, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(refreshInterval(l.ttl))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
		for _, key := range keys {
			n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			switch {
			case err != nil:
				l.logger.Warn("extend redis lock", zap.String("key", key), zap.Error(err))
			case n == 0:
				l.logger.Warn("redis lock lost before release", zap.String("key", key))
			}
		}
		cancel()
	}
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(redisRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaseAll(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err(); err != nil {
			l.logger.Warn("release redis lock", zap.String("key", keys[i]), zap.Error(err))
		}
	}
}
