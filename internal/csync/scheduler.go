package csync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"csync-go/internal/config"
	"csync-go/internal/optimizer"
	"csync-go/internal/schedule"
)

// Scheduler is the daemon loop: every tick it runs whichever schedules have
// come due. A single goroutine drives all runs, so schedule state has one
// writer.
type Scheduler struct {
	service *SyncService
	manager *schedule.Manager
	tick    time.Duration
	logger  Logger
	clock   Clock
}

// NewScheduler creates a Scheduler polling at the given interval. A zero or
// negative tick falls back to one minute.
func NewScheduler(service *SyncService, manager *schedule.Manager, tick time.Duration, logger Logger, clock Clock) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		service: service,
		manager: manager,
		tick:    tick,
		logger:  logger,
		clock:   clock,
	}
}

// Run blocks until ctx is cancelled, executing due schedules on each tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "tick", s.tick.String(), "schedules", s.manager.EnabledCount())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue executes every schedule whose next run time has passed. Runs are
// sequential; if a transfer is already in flight the whole tick is skipped
// and the schedules stay due for the next one.
func (s *Scheduler) RunDue(ctx context.Context) {
	due := s.manager.Due(s.clock.Now())
	for _, sched := range due {
		err := s.service.RunSchedule(ctx, sched.ID)
		if errors.Is(err, ErrSyncInProgress) {
			return
		}
		if err != nil {
			s.logger.Warn("scheduled run failed", "schedule", sched.Name, "error", err)
		}
	}
}

// WatchConfig watches the config file and applies transfer-policy changes to
// the running service without a restart. It blocks until ctx is cancelled.
// The parent directory is watched because editors typically replace the file
// rather than write it in place.
func (s *Scheduler) WatchConfig(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := config.ReadFromFile(path)
			if err != nil {
				s.logger.Warn("config reload failed", "path", path, "error", err)
				continue
			}
			s.service.SetPolicy(PolicyFromConfig(cfg.Transfer))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", "error", err)
		}
	}
}

// PolicyFromConfig converts the config file's transfer section into the
// optimizer's policy type.
func PolicyFromConfig(cfg config.TransferConfig) optimizer.MultiThreadPolicy {
	p := optimizer.MultiThreadPolicy{
		Enabled:            cfg.MultiThreadEnabled,
		ThreadCount:        cfg.MultiThreadStreams,
		SizeThresholdBytes: cfg.MultiThreadCutoffBytes,
	}
	p.Validate()
	return p
}
