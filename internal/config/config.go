package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store and lock driver names.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Lending      LendingConfig
	Notification NotificationConfig
}

// AppConfig controls the HTTP server.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
	Timeout time.Duration
}

// PostgresConfig holds pool settings. An empty DSN disables Postgres.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnIdle     time.Duration
	MaxConnLifetime time.Duration
	RunMigrations   bool
	MigrationsDir   string
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Service  string
	Version  string
}

// LendingConfig tunes the lending engine and its collaborators.
type LendingConfig struct {
	DefaultBorrowLimit int
	StoreDriver        string
	LockDriver         string
	LockLease          time.Duration
	OverdueEvery       time.Duration
	IDSeed             int64
}

// NotificationConfig holds event fan-out settings.
type NotificationConfig struct {
	RedisChannel string
	// WebhookURL is only echoed in debug logs; nothing is posted to it.
	WebhookURL string
}

// Load reads configuration from the environment (and a .env file when present).
// Malformed numbers and booleans are reported rather than silently defaulted.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		App:          loadApp(env),
		Postgres:     loadPostgres(env),
		Redis:        loadRedis(env),
		Logger:       loadLogger(env),
		Notification: loadNotification(env),
	}
	cfg.Lending = loadLending(env, cfg.Postgres.DSN, cfg.Redis.Addr)
	if err := env.err(); err != nil {
		return nil, err
	}

	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Version = cfg.App.Version

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadApp(env *envReader) AppConfig {
	return AppConfig{
		Name:    env.str("APP_NAME", "lending-service"),
		Env:     env.str("APP_ENV", "development"),
		Host:    env.str("APP_HOST", "0.0.0.0"),
		Port:    env.str("APP_PORT", "8080"),
		Version: env.str("APP_VERSION", "dev"),
		Timeout: env.seconds("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
	}
}

func loadPostgres(env *envReader) PostgresConfig {
	return PostgresConfig{
		DSN:             env.str("POSTGRES_DSN", ""),
		MaxConns:        int32(env.integer("POSTGRES_MAX_CONNS", 10)),
		MinConns:        int32(env.integer("POSTGRES_MIN_CONNS", 2)),
		MaxConnIdle:     env.seconds("POSTGRES_CONN_MAX_IDLE_SECONDS", 30),
		MaxConnLifetime: env.seconds("POSTGRES_CONN_MAX_LIFE_SECONDS", 300),
		RunMigrations:   env.boolean("POSTGRES_RUN_MIGRATIONS", true),
		MigrationsDir:   env.str("POSTGRES_MIGRATIONS_DIR", "migrations"),
	}
}

func loadRedis(env *envReader) RedisConfig {
	return RedisConfig{
		Addr:     env.str("REDIS_ADDR", ""),
		Password: env.str("REDIS_PASSWORD", ""),
		DB:       env.integer("REDIS_DB", 0),
	}
}

func loadLogger(env *envReader) LoggerConfig {
	return LoggerConfig{
		Level:    env.str("LOG_LEVEL", "info"),
		Encoding: strings.ToLower(env.str("LOG_ENCODING", "json")),
	}
}

func loadNotification(env *envReader) NotificationConfig {
	return NotificationConfig{
		RedisChannel: env.str("NOTIFY_REDIS_CHANNEL", "lending.events"),
		WebhookURL:   env.str("NOTIFY_WEBHOOK_URL", ""),
	}
}

// loadLending picks the store and lock drivers from whichever endpoints are
// configured unless they are set explicitly.
func loadLending(env *envReader, dsn, redisAddr string) LendingConfig {
	return LendingConfig{
		DefaultBorrowLimit: env.integer("LENDING_DEFAULT_BORROW_LIMIT", 3),
		StoreDriver:        strings.ToLower(env.str("LENDING_STORE_DRIVER", defaultDriver(dsn, DriverPostgres))),
		LockDriver:         strings.ToLower(env.str("LENDING_LOCK_DRIVER", defaultDriver(redisAddr, DriverRedis))),
		LockLease:          env.seconds("LENDING_LOCK_TTL_SECONDS", 10),
		OverdueEvery:       env.seconds("LENDING_OVERDUE_SCAN_INTERVAL_SECONDS", 3600),
		IDSeed:             int64(env.integer("LENDING_ID_SEED", int(time.Now().UnixNano()%1_000_000))),
	}
}

func (c *Config) validate() error {
	switch c.Lending.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("LENDING_STORE_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("invalid LENDING_STORE_DRIVER %q", c.Lending.StoreDriver)
	}
	switch c.Lending.LockDriver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("LENDING_LOCK_DRIVER=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid LENDING_LOCK_DRIVER %q", c.Lending.LockDriver)
	}
	if c.Lending.DefaultBorrowLimit <= 0 {
		return fmt.Errorf("LENDING_DEFAULT_BORROW_LIMIT must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

// RequestTimeout returns the per-request deadline; zero disables it.
func (a AppConfig) RequestTimeout() time.Duration {
	return max(a.Timeout, 0)
}

// LockTTL returns how long a distributed lock may be held.
func (l LendingConfig) LockTTL() time.Duration {
	if l.LockLease <= 0 {
		return 10 * time.Second
	}
	return l.LockLease
}

// OverdueScanInterval returns the overdue worker period; zero disables the worker.
func (l LendingConfig) OverdueScanInterval() time.Duration {
	return max(l.OverdueEvery, 0)
}

func defaultDriver(endpoint, driver string) string {
	if endpoint == "" {
		return DriverMemory
	}
	return driver
}

// envReader reads typed values and keeps every parse failure.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func (r *envReader) integer(key string, fallback int) int {
	raw := r.str(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return n
}

func (r *envReader) boolean(key string, fallback bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return b
}

func (r *envReader) seconds(key string, fallback int) time.Duration {
	return time.Duration(r.integer(key, fallback)) * time.Second
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
