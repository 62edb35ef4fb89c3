package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/lending-service/internal/api/http"
	"github.com/spec-kit/lending-service/internal/api/http/handlers"
	"github.com/spec-kit/lending-service/internal/clock"
	"github.com/spec-kit/lending-service/internal/config"
	"github.com/spec-kit/lending-service/internal/events"
	"github.com/spec-kit/lending-service/internal/idgen"
	"github.com/spec-kit/lending-service/internal/lock"
	"github.com/spec-kit/lending-service/internal/observability"
	"github.com/spec-kit/lending-service/internal/persistence"
	"github.com/spec-kit/lending-service/internal/repository"
	"github.com/spec-kit/lending-service/internal/service"
	"github.com/spec-kit/lending-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Configured() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()

	store := buildStore(cfg, pg, logger)
	defer store.Close()
	locker := buildLocker(cfg, redis, logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var forwarder service.EventForwarder
	if redis.Configured() && cfg.Notification.RedisChannel != "" {
		forwarder = events.NewRedisPublisher(redis.Client, cfg.Notification.RedisChannel)
	}
	notifications := service.NewNotificationService(dispatcher, forwarder, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications, logger)

	ids := idgen.NewRandom(cfg.Lending.IDSeed)
	registry := service.NewRegistryService(service.RegistryDependencies{
		Store:              store,
		IDs:                ids,
		Dispatcher:         dispatcher,
		Logger:             logger,
		DefaultBorrowLimit: cfg.Lending.DefaultBorrowLimit,
	})
	lending := service.NewLendingService(service.LendingDependencies{
		Store:      store,
		Locker:     locker,
		Clock:      clock.System(),
		IDs:        ids,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	go worker.RunOverdueWorker(ctx, lending, cfg.Lending.OverdueScanInterval(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := []handlers.DependencyCheck{{Name: "store", Target: store}}
	if redis.Configured() {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Target: redis})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Registry: handlers.NewRegistryHandler(registry),
		Loans:    handlers.NewLoansHandler(lending),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func buildStore(cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) repository.Store {
	if cfg.Lending.StoreDriver == config.DriverPostgres {
		logger.Info("using postgres store")
		return repository.NewPostgresStore(pg.PoolHandle())
	}
	logger.Info("using in-memory store")
	return repository.NewMemoryStore()
}

func buildLocker(cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) lock.Locker {
	if cfg.Lending.LockDriver == config.DriverRedis {
		logger.Info("using redis locks", zap.Duration("ttl", cfg.Lending.LockTTL()))
		return lock.NewRedisLocker(redis.Client, cfg.Lending.LockTTL(), logger)
	}
	logger.Info("using in-process locks")
	return lock.NewKeyedLocker()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
