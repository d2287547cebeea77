// Package app wires the configured components together and runs them until
// the process context ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fxbot/internal/config"
	"fxbot/internal/jobs"
	"fxbot/internal/logger"
	"fxbot/internal/scheduler"
	"fxbot/internal/store"
	"fxbot/internal/trader"
	"fxbot/internal/transport/http/api"
)

const busDrainTimeout = 30 * time.Second

// App owns the long-running parts of the process.
type App struct {
	cfg       *config.Config
	store     store.Connector
	uow       *trader.UnitOfWork
	runner    *jobs.Runner
	cron      *scheduler.Cron
	technical *scheduler.AlignedScheduler
	http      *api.Server
	Summary   *StartupSummary
}

// NewApp builds the application from cfg without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the event bus, the schedulers and the HTTP server and blocks
// until ctx ends or one of them fails. Queued events are drained before the
// store is closed.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.uow == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	defer a.close()

	busCtx, cancelBus := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBus()
	a.uow.Start(busCtx)
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.cron.Run(gctx)
	})
	if a.technical != nil {
		group.Go(func() error {
			a.technical.Run(gctx, func(ctx context.Context) {
				if err := a.runner.ComputeTechnicalSignal(ctx); err != nil {
					logger.Errorf("job technical_signal failed: %v", err)
				}
			})
			return nil
		})
	}
	if a.http != nil {
		group.Go(func() error {
			if err := a.http.Start(gctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	err := group.Wait()
	stopCtx, cancel := context.WithTimeout(context.Background(), busDrainTimeout)
	defer cancel()
	if stopErr := a.uow.Stop(stopCtx); stopErr != nil {
		logger.Warnf("bus: stop: %v (pending=%d)", stopErr, len(a.uow.Bus().Pending()))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Warnf("store close: %v", err)
	}
}

// UnitOfWork exposes the trading core for replay harnesses and tests.
func (a *App) UnitOfWork() *trader.UnitOfWork {
	if a == nil {
		return nil
	}
	return a.uow
}

func (a *App) Runner() *jobs.Runner {
	if a == nil {
		return nil
	}
	return a.runner
}
