package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/config"
)

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis holds the client shared by the lock manager and the event publisher.
// The zero value means Redis is disabled.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client from cfg. Addr may be host:port or a redis:// URL,
// in which case Password and DB come from the URL. An unreachable server is
// logged, not fatal: readiness reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, redis disabled")
		return &Redis{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", opts.Addr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	}
	return &Redis{Client: client}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_ADDR: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// Close releases the client connections.
func (r *Redis) Close() {
	if r.Configured() {
		_ = r.Client.Close()
	}
}

// Configured reports whether Redis is enabled.
func (r *Redis) Configured() bool {
	return r != nil && r.Client != nil
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Configured() {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}
