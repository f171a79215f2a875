package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/config"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/persistence"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	"github.com/spec-kit/vaccine-scheduler/internal/repository/memory"
	"github.com/spec-kit/vaccine-scheduler/internal/service"
	"github.com/spec-kit/vaccine-scheduler/internal/worker"
)

// application holds the wired services and the resources they own.
type application struct {
	store        repository.Store
	postgres     *persistence.Postgres
	redis        *persistence.Redis
	metrics      *observability.Metrics
	notifier     *worker.NotificationWorker
	auth         *service.AuthService
	schedule     *service.ScheduleService
	reservations *service.ReservationService
}

func bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{metrics: observability.NewMetrics()}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Info("using in-memory store")
		app.store = memory.NewStore()
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		app.postgres = pg

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		app.store = repository.NewPostgresStore(pg.PoolHandle(), repository.StoreOptions{
			MaxRetries: cfg.Store.MaxTxRetries,
			OnRetry: func(attempt int, err error) {
				app.metrics.RecordTxRetry()
				logger.Warn("retrying transaction", zap.Int("attempt", attempt), zap.Error(err))
			},
		})
	}

	app.redis = persistence.NewRedis(cfg.Redis, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, app.redis.Client(), cfg.Redis)
	app.notifier = worker.StartNotificationWorker(dispatcher, notifications, logger)

	app.auth = service.NewAuthService(service.AuthDependencies{
		Store:      app.store,
		Hasher:     auth.NewHasher(cfg.Auth),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	app.schedule = service.NewScheduleService(service.ScheduleDependencies{
		Store:      app.store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	app.reservations = service.NewReservationService(service.ReservationDependencies{
		Store:         app.store,
		Dispatcher:    dispatcher,
		Metrics:       app.metrics,
		Logger:        logger,
		CancelEnabled: cfg.App.CancelEnabled,
	})
	return app, nil
}

// Close flushes pending notifications and releases connections.
func (a *application) Close() {
	if a.notifier != nil {
		a.notifier.Stop()
	}
	a.redis.Close()
	if a.store != nil {
		a.store.Close()
	}
	a.postgres.Close()
}
