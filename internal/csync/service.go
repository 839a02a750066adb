// Package csync is the orchestration layer that coordinates the optimizer,
// the engine boundary, the error classifier and the schedule engine to run
// complete transfers.
package csync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"csync-go/internal/classify"
	"csync-go/internal/engine"
	"csync-go/internal/optimizer"
	"csync-go/internal/schedule"
)

// ErrSyncInProgress is returned when a transfer is requested while another
// one is still running. Scheduled jobs never overlap.
var ErrSyncInProgress = errors.New("a sync is already in progress")

// SyncRequest describes one transfer between two endpoints. A remote of
// "local" (or empty) means the path is used verbatim instead of remote:path.
type SyncRequest struct {
	SourceRemote      string
	SourcePath        string
	DestinationRemote string
	DestinationPath   string
	SyncType          schedule.SyncType
}

// SyncResult reports one finished engine invocation.
type SyncResult struct {
	Config optimizer.TransferConfig
	Args   []string
	Output engine.Output
	Err    classify.TransferError // nil on success
}

// SyncService runs transfers end to end: size probe, tuning decision,
// engine invocation, error classification and schedule bookkeeping.
type SyncService struct {
	runner    engine.Runner
	client    *engine.Client
	schedules *schedule.Manager
	logger    Logger
	clock     Clock

	mu      sync.Mutex
	policy  optimizer.MultiThreadPolicy
	running bool
}

// NewSyncService creates a SyncService. schedules may be nil when schedule
// bookkeeping is not needed (one-off CLI transfers).
func NewSyncService(runner engine.Runner, policy optimizer.MultiThreadPolicy, schedules *schedule.Manager, logger Logger, clock Clock) *SyncService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	policy.Validate()
	return &SyncService{
		runner:    runner,
		client:    engine.NewClient(runner),
		schedules: schedules,
		logger:    logger,
		clock:     clock,
		policy:    policy,
	}
}

// SetPolicy replaces the multi-thread policy. Used by the config watcher to
// apply changes without restarting the daemon.
func (s *SyncService) SetPolicy(policy optimizer.MultiThreadPolicy) {
	policy.Validate()
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()
	s.logger.Info("transfer policy updated",
		"enabled", policy.Enabled, "threads", policy.ThreadCount, "threshold", policy.SizeThresholdBytes)
}

// Run executes one transfer. Only one transfer runs at a time; a second
// caller gets ErrSyncInProgress instead of queueing.
func (s *SyncService) Run(ctx context.Context, req SyncRequest) (SyncResult, error) {
	if !s.begin() {
		return SyncResult{}, ErrSyncInProgress
	}
	defer s.end()

	return s.run(ctx, req)
}

func (s *SyncService) run(ctx context.Context, req SyncRequest) (SyncResult, error) {
	source := Target(req.SourceRemote, req.SourcePath)
	dest := Target(req.DestinationRemote, req.DestinationPath)

	// Probe the source so the optimizer sees the real workload shape. A
	// failed probe is not fatal; the optimizer falls back to its defaults.
	report, err := s.client.Size(ctx, source)
	if err != nil {
		s.logger.Warn("size probe failed, using default tuning", "source", source, "error", err)
		report = engine.SizeReport{}
	}

	treq := optimizer.TransferRequest{
		FileCount:   report.Count,
		TotalBytes:  report.Bytes,
		RemoteName:  remoteSide(req),
		IsDirectory: report.Count != 1,
		IsDownload:  isLocal(req.DestinationRemote) && !isLocal(req.SourceRemote),
	}

	s.mu.Lock()
	policy := s.policy
	s.mu.Unlock()

	cfg := optimizer.Optimize(treq, policy)
	args := append([]string{verbFor(req.SyncType), source, dest}, optimizer.BuildArgs(cfg)...)

	s.logger.Info("starting transfer",
		"source", source, "dest", dest, "files", report.Count, "bytes", report.Bytes,
		"transfers", cfg.Transfers, "multithread", cfg.MultiThread)

	out, runErr := s.runner.Run(ctx, args)
	result := SyncResult{Config: cfg, Args: args, Output: out}

	if runErr != nil {
		terr := classify.Classify(out.Combined())
		if terr == nil {
			terr = classify.Unknown{Message: firstNonEmptyLine(out.Combined(), runErr.Error())}
		}
		result.Err = terr
		s.logger.Error("transfer failed", "source", source, "title", terr.Title(), "message", terr.UserMessage())
		return result, fmt.Errorf("transfer failed: %s", terr.UserMessage())
	}

	s.logger.Info("transfer complete", "source", source, "dest", dest)
	return result, nil
}

// RunSchedule executes the schedule with the given ID and records the
// outcome. Critical failures disable the schedule so it does not retry
// until the user intervenes.
func (s *SyncService) RunSchedule(ctx context.Context, id string) error {
	if s.schedules == nil {
		return fmt.Errorf("no schedule manager configured")
	}
	sched, ok := s.schedules.Get(id)
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}

	if !s.begin() {
		s.logger.Debug("skipping scheduled run, sync in progress", "schedule", sched.Name)
		return ErrSyncInProgress
	}
	defer s.end()

	result, runErr := s.run(ctx, SyncRequest{
		SourceRemote:      sched.SourceRemote,
		SourcePath:        sched.SourcePath,
		DestinationRemote: sched.DestinationRemote,
		DestinationPath:   sched.DestinationPath,
		SyncType:          sched.SyncType,
	})

	var runErrMsg string
	if runErr != nil {
		if result.Err != nil {
			runErrMsg = result.Err.UserMessage()
		} else {
			runErrMsg = runErr.Error()
		}
	}

	if err := s.schedules.MarkRun(ctx, id, runErr == nil, runErrMsg); err != nil {
		s.logger.Error("failed to record schedule run", "schedule", sched.Name, "error", err)
	}

	if result.Err != nil && result.Err.Critical() {
		s.logger.Warn("critical failure, disabling schedule", "schedule", sched.Name, "title", result.Err.Title())
		if _, err := s.schedules.Toggle(ctx, id); err != nil {
			s.logger.Error("failed to disable schedule", "schedule", sched.Name, "error", err)
		}
	}

	return runErr
}

// Running reports whether a transfer is currently in flight.
func (s *SyncService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncService) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Target builds an engine path argument. Local endpoints use the bare path;
// everything else uses the remote:path form.
func Target(remote, path string) string {
	if isLocal(remote) {
		return path
	}
	return remote + ":" + path
}

func isLocal(remote string) bool {
	return remote == "" || remote == "local"
}

// remoteSide picks the remote whose capabilities drive the tuning decision.
// For downloads that is the source; otherwise the destination wins.
func remoteSide(req SyncRequest) string {
	if !isLocal(req.SourceRemote) {
		return req.SourceRemote
	}
	return req.DestinationRemote
}

// verbFor maps the schedule's sync type to the engine verb. Transfers and
// backups copy without deleting extraneous destination files; sync mirrors.
func verbFor(t schedule.SyncType) string {
	if t == schedule.SyncTypeSync {
		return "sync"
	}
	return "copy"
}

func firstNonEmptyLine(s, fallback string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
