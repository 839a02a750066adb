package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger provides structured logging. The args follow slog conventions:
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// Store persists schedules durably. Every mutating Manager operation writes
// through; the store must round-trip every field including the weekday set
// and absent optionals.
type Store interface {
	List(ctx context.Context) ([]SyncSchedule, error)
	Put(ctx context.Context, s SyncSchedule) error
	Delete(ctx context.Context, id string) error
}

// Manager owns the schedule collection. A single scheduler tick mutates
// next-run bookkeeping; reads take the shared lock and return copies.
type Manager struct {
	store Store
	clock Clock
	ids   IDGenerator
	log   Logger

	mu        sync.RWMutex
	schedules []SyncSchedule
}

// NewManager returns an empty Manager; call Load to hydrate it from the
// store. A nil logger discards output.
func NewManager(store Store, clock Clock, ids IDGenerator, log Logger) *Manager {
	if log == nil {
		log = nopLogger{}
	}
	return &Manager{store: store, clock: clock, ids: ids, log: log}
}

// Load reads all schedules from the store and recomputes next-run times for
// the enabled ones, persisting any that changed.
func (m *Manager) Load(ctx context.Context) error {
	schedules, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules = schedules
	for i := range m.schedules {
		if !m.schedules[i].IsEnabled {
			continue
		}
		m.schedules[i].NextRunAt = m.schedules[i].CalculateNextRun(now)
		if err := m.store.Put(ctx, m.schedules[i]); err != nil {
			return fmt.Errorf("persist schedule %s: %w", m.schedules[i].ID, err)
		}
	}

	m.log.Info("schedules loaded", "count", len(m.schedules))
	return nil
}

// Add stores a new schedule. An empty ID gets one assigned; the next run is
// computed immediately when the schedule is enabled.
func (m *Manager) Add(ctx context.Context, s SyncSchedule) (SyncSchedule, error) {
	now := m.clock.Now()
	if s.ID == "" {
		s.ID = m.ids.New()
	}
	s.CreatedAt = now
	s.ModifiedAt = now
	if s.IsEnabled {
		s.NextRunAt = s.CalculateNextRun(now)
	} else {
		s.NextRunAt = nil
	}

	if err := m.store.Put(ctx, s); err != nil {
		return SyncSchedule{}, fmt.Errorf("add schedule: %w", err)
	}

	m.mu.Lock()
	m.schedules = append(m.schedules, s)
	m.mu.Unlock()

	m.log.Info("schedule added", "id", s.ID, "name", s.Name, "rule", s.FormattedSchedule())
	return s, nil
}

// Update replaces an existing schedule by ID and recomputes its next run.
func (m *Manager) Update(ctx context.Context, s SyncSchedule) error {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(s.ID)
	if i < 0 {
		return fmt.Errorf("update schedule: %s not found", s.ID)
	}

	s.CreatedAt = m.schedules[i].CreatedAt
	s.ModifiedAt = now
	if s.IsEnabled {
		s.NextRunAt = s.CalculateNextRun(now)
	} else {
		s.NextRunAt = nil
	}

	if err := m.store.Put(ctx, s); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	m.schedules[i] = s
	return nil
}

// Delete removes a schedule permanently.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("delete schedule: %s not found", id)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	m.schedules = append(m.schedules[:i], m.schedules[i+1:]...)
	m.log.Info("schedule deleted", "id", id)
	return nil
}

// Toggle flips a schedule's enabled flag. Disabling clears the next run;
// enabling recomputes it.
func (m *Manager) Toggle(ctx context.Context, id string) (SyncSchedule, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return SyncSchedule{}, fmt.Errorf("toggle schedule: %s not found", id)
	}

	s := m.schedules[i]
	s.IsEnabled = !s.IsEnabled
	s.ModifiedAt = now
	if s.IsEnabled {
		s.NextRunAt = s.CalculateNextRun(now)
	} else {
		s.NextRunAt = nil
	}

	if err := m.store.Put(ctx, s); err != nil {
		return SyncSchedule{}, fmt.Errorf("toggle schedule: %w", err)
	}
	m.schedules[i] = s
	m.log.Info("schedule toggled", "id", id, "enabled", s.IsEnabled)
	return s, nil
}

// MarkRun records the outcome of a run and advances the next-run time.
func (m *Manager) MarkRun(ctx context.Context, id string, success bool, runErr string) error {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("mark run: %s not found", id)
	}

	s := &m.schedules[i]
	s.LastRunAt = &now
	s.LastRunSuccess = &success
	s.RunCount++
	if success {
		s.LastRunError = nil
	} else {
		s.FailureCount++
		s.LastRunError = &runErr
	}
	if s.IsEnabled {
		s.NextRunAt = s.CalculateNextRun(now)
	} else {
		s.NextRunAt = nil
	}
	s.ModifiedAt = now

	if err := m.store.Put(ctx, *s); err != nil {
		return fmt.Errorf("mark run: %w", err)
	}
	return nil
}

// Get returns a copy of the schedule with the given ID.
func (m *Manager) Get(id string) (SyncSchedule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexLocked(id)
	if i < 0 {
		return SyncSchedule{}, false
	}
	return m.schedules[i], true
}

// List returns a copy of all schedules in insertion order.
func (m *Manager) List() []SyncSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SyncSchedule, len(m.schedules))
	copy(out, m.schedules)
	return out
}

// EnabledCount returns the number of enabled schedules.
func (m *Manager) EnabledCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for i := range m.schedules {
		if m.schedules[i].IsEnabled {
			n++
		}
	}
	return n
}

// Due returns the enabled schedules whose next run is at or before now.
func (m *Manager) Due(now time.Time) []SyncSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []SyncSchedule
	for i := range m.schedules {
		s := m.schedules[i]
		if s.IsEnabled && s.NextRunAt != nil && !s.NextRunAt.After(now) {
			due = append(due, s)
		}
	}
	return due
}

// NextScheduledRun returns the enabled schedule with the earliest non-nil
// next run. Ties resolve to insertion order.
func (m *Manager) NextScheduledRun() (SyncSchedule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := -1
	for i := range m.schedules {
		s := &m.schedules[i]
		if !s.IsEnabled || s.NextRunAt == nil {
			continue
		}
		if best < 0 || s.NextRunAt.Before(*m.schedules[best].NextRunAt) {
			best = i
		}
	}
	if best < 0 {
		return SyncSchedule{}, false
	}
	return m.schedules[best], true
}

// FormattedNextRun renders the soonest upcoming run across all schedules.
func (m *Manager) FormattedNextRun(now time.Time) string {
	next, ok := m.NextScheduledRun()
	if !ok {
		return "No schedules"
	}
	return next.Name + ": " + next.FormattedNextRun(now)
}

func (m *Manager) indexLocked(id string) int {
	for i := range m.schedules {
		if m.schedules[i].ID == id {
			return i
		}
	}
	return -1
}
