// Package app is the application layer between the CLI and the service
// packages. It constructs all dependencies from config and manages their
// lifecycle on Close.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/database"
	"csync-go/internal/engine"
	"csync-go/internal/negotiate"
	"csync-go/internal/schedule"
)

// App wires the engine boundary, the schedule manager and the sync service
// from a loaded config. The caller must call Close when done.
type App struct {
	cfg       *config.Config
	store     schedule.Store
	schedules *schedule.Manager
	runner    engine.Runner
	client    *engine.Client
	service   *csync.SyncService
	logger    *slogAdapter
	logFile   *os.File
}

// New creates a fully wired App from the given config.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opID := OperationID(time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating schedule store: %w", err)
	}

	schedules := schedule.NewManager(store, csync.RealClock{}, csync.UUIDGenerator{}, adapter)
	if err := schedules.Load(ctx); err != nil {
		closeStore(store)
		logFile.Close()
		return nil, fmt.Errorf("loading schedules: %w", err)
	}

	runner := engine.NewExecRunner(cfg.Engine.BinPath, cfg.Engine.ConfigPath, adapter)
	service := csync.NewSyncService(runner, csync.PolicyFromConfig(cfg.Transfer), schedules, adapter, csync.RealClock{})

	return &App{
		cfg:       cfg,
		store:     store,
		schedules: schedules,
		runner:    runner,
		client:    engine.NewClient(runner),
		service:   service,
		logger:    adapter,
		logFile:   logFile,
	}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Schedules returns the schedule manager.
func (a *App) Schedules() *schedule.Manager { return a.schedules }

// Service returns the sync service.
func (a *App) Service() *csync.SyncService { return a.service }

// Client returns the engine client for remote management commands.
func (a *App) Client() *engine.Client { return a.client }

// Negotiator returns a driver for interactive provider setup sessions.
func (a *App) Negotiator() *negotiate.Driver {
	return negotiate.NewDriver(a.runner, a.logger)
}

// Scheduler builds the daemon loop from the config's scheduler section.
func (a *App) Scheduler() *csync.Scheduler {
	tick := time.Duration(a.cfg.Scheduler.TickSeconds) * time.Second
	return csync.NewScheduler(a.service, a.schedules, tick, a.logger, csync.RealClock{})
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := closeStore(a.store); err != nil {
		firstErr = fmt.Errorf("closing schedule store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// closeStore closes stores that hold resources; the memory store does not.
func closeStore(store schedule.Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
