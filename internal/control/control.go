// Package control wires the recovery core to a storage backend and runs the
// service lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/schedrecovery/internal/core/config"
	"github.com/vietddude/schedrecovery/internal/core/worker"
	"github.com/vietddude/schedrecovery/internal/health"
	"github.com/vietddude/schedrecovery/internal/history"
	redisclient "github.com/vietddude/schedrecovery/internal/infra/redis"
	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/infra/storage/memory"
	"github.com/vietddude/schedrecovery/internal/infra/storage/sqldb"
	"github.com/vietddude/schedrecovery/internal/recovery"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
	"github.com/vietddude/schedrecovery/internal/recovery/rollback"
)

const shutdownTimeout = 15 * time.Second

// App holds the assembled managers and the background workers.
type App struct {
	Recovery *recovery.Manager
	History  *history.Manager
	Rollback *rollback.Store
	Counter  *retry.Counter

	backend string
	repo    storage.KVRepository
	db      *sqldb.DB
	server  *health.Server
	pruner  *worker.Pruner
	closers []func() error
	logger  *slog.Logger
}

// Options carries collaborators that live outside the core.
type Options struct {
	Logger      *slog.Logger
	Reconnector recovery.Reconnector
	SlotFinder  recovery.SlotFinder
	Executor    history.Executor
}

// NewApp opens the configured backend and builds every manager on top of it.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{backend: cfg.Storage.Backend, logger: logger}
	if err := app.openStore(ctx, cfg); err != nil {
		return nil, err
	}

	table, err := cfg.Recovery.RetryTable()
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Counter = retry.NewCounter()
	app.Rollback = rollback.New(
		storage.NewStash(app.repo, cfg.Recovery.RollbackTTL),
		rollback.WithMaxPoints(cfg.Recovery.MaxRollbackPoints),
		rollback.WithLogger(logger),
	)

	recOpts := []recovery.Option{recovery.WithLogger(logger)}
	if opts.Reconnector != nil {
		recOpts = append(recOpts, recovery.WithReconnector(opts.Reconnector))
	}
	if opts.SlotFinder != nil {
		recOpts = append(recOpts, recovery.WithSlotFinder(opts.SlotFinder))
	}
	app.Recovery = recovery.NewManager(table, app.Counter, app.Rollback, recOpts...)

	histOpts := []history.Option{
		history.WithMaxPerUser(cfg.History.MaxPerUser),
		history.WithLogger(logger),
	}
	if opts.Executor != nil {
		histOpts = append(histOpts, history.WithExecutor(opts.Executor))
	}
	app.History = history.New(storage.NewStash(app.repo, cfg.History.TTL), histOpts...)

	var pinger storage.Pinger
	if p, ok := app.repo.(storage.Pinger); ok {
		pinger = p
	}
	app.server = health.NewServer(health.NewMonitor(app.backend, pinger, app.Counter), cfg.Server.Port)

	if p, ok := app.repo.(storage.ExpiredPruner); ok {
		app.pruner = worker.NewPruner(cfg.Pruner.Interval, p, logger)
	}

	logger.Info("Recovery core initialized",
		"backend", app.backend,
		"max_rollback_points", cfg.Recovery.MaxRollbackPoints,
		"max_history_per_user", cfg.History.MaxPerUser)
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.AppConfig) error {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		a.repo = memory.NewKVStore()
		a.logger.Info("Using Memory storage")

	case config.BackendRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to init redis: %w", err)
		}
		a.repo = redisclient.NewKVRepo(client)
		a.closers = append(a.closers, client.Close)
		a.logger.Info("Using Redis storage")

	case config.BackendPostgres, config.BackendSQLite:
		db, err := sqldb.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		a.repo = sqldb.NewKVRepo(db)
		a.closers = append(a.closers, db.Close)
		a.logger.Info("Using SQL storage", "driver", cfg.Database.Driver)

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// Backend names the active storage backend.
func (a *App) Backend() string {
	return a.backend
}

// Handler exposes the health and metrics routes.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves health and metrics and runs the pruner until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Stop(shutdownCtx)
	})

	if a.pruner != nil {
		g.Go(func() error {
			a.pruner.Start(ctx)
			return nil
		})
	}

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.logger.Info("Service started", "backend", a.backend)
	return g.Wait()
}

// Close releases the storage connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
