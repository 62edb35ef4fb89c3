package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"POSTGRES_DSN", "REDIS_ADDR", "LENDING_STORE_DRIVER", "LENDING_LOCK_DRIVER",
		"LENDING_DEFAULT_BORROW_LIMIT", "LENDING_OVERDUE_SCAN_INTERVAL_SECONDS", "APP_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Lending.StoreDriver)
	assert.Equal(t, DriverMemory, cfg.Lending.LockDriver)
	assert.Equal(t, 3, cfg.Lending.DefaultBorrowLimit)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.Lending.LockTTL())
	assert.Equal(t, time.Hour, cfg.Lending.OverdueScanInterval())
	assert.Equal(t, "lending.events", cfg.Notification.RedisChannel)
}

func TestLoadPicksDriversFromEndpoints(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/lending")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Lending.StoreDriver)
	assert.Equal(t, DriverRedis, cfg.Lending.LockDriver)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres store without dsn", env: map[string]string{"LENDING_STORE_DRIVER": "postgres"}},
		{name: "redis lock without address", env: map[string]string{"LENDING_LOCK_DRIVER": "redis"}},
		{name: "unknown store driver", env: map[string]string{"LENDING_STORE_DRIVER": "sqlite"}},
		{name: "non-positive limit", env: map[string]string{"LENDING_DEFAULT_BORROW_LIMIT": "-2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestOverdueScanCanBeDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("LENDING_OVERDUE_SCAN_INTERVAL_SECONDS", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Zero(t, cfg.Lending.OverdueScanInterval())
}

func TestLoadReportsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LENDING_OVERDUE_SCAN_INTERVAL_SECONDS", "hourly")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LENDING_OVERDUE_SCAN_INTERVAL_SECONDS")
}
