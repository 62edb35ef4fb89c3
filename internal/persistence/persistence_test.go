package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/lending-service/internal/config"
)

func TestRedisOptionsFromHostPort(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2})

	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestRedisOptionsFromURL(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{Addr: "redis://:secret@cache:6380/4", DB: 9})

	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 4, opts.DB)
}

func TestDisabledRedis(t *testing.T) {
	r, err := NewRedis(config.RedisConfig{}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, r.Configured())
	assert.ErrorIs(t, r.Ping(context.Background()), errRedisNotConfigured)
	r.Close()
}

func TestDisabledPostgres(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, "lending-service", zap.NewNop())

	require.NoError(t, err)
	assert.False(t, pg.Configured())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestPoolConfigAppliesLimits(t *testing.T) {
	cfg := config.PostgresConfig{
		DSN:             "postgres://lending:secret@db:5432/lending?sslmode=disable",
		MaxConns:        8,
		MinConns:        2,
		MaxConnIdle:     time.Minute,
		MaxConnLifetime: time.Hour,
	}

	poolCfg, err := poolConfig(cfg, "lending-service")

	require.NoError(t, err)
	assert.EqualValues(t, 8, poolCfg.MaxConns)
	assert.EqualValues(t, 2, poolCfg.MinConns)
	assert.Equal(t, time.Minute, poolCfg.MaxConnIdleTime)
	assert.Equal(t, time.Hour, poolCfg.MaxConnLifetime)
	assert.Equal(t, "lending-service", poolCfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigRejectsBadDSN(t *testing.T) {
	_, err := poolConfig(config.PostgresConfig{DSN: "://nope"}, "")

	assert.Error(t, err)
}
