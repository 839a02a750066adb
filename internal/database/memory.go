package database

import (
	"context"
	"fmt"
	"sync"

	"csync-go/internal/schedule"
)

// MemoryStore implements schedule.Store in process memory. Used by tests and
// by runs that opt out of durable scheduling.
type MemoryStore struct {
	mu        sync.Mutex
	schedules []schedule.SyncSchedule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// List returns all schedules in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]schedule.SyncSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]schedule.SyncSchedule, len(m.schedules))
	copy(out, m.schedules)
	return out, nil
}

// Put inserts or replaces a schedule by ID, preserving insertion order on
// replace.
func (m *MemoryStore) Put(_ context.Context, s schedule.SyncSchedule) error {
	if s.ID == "" {
		return fmt.Errorf("storing schedule: empty id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.schedules {
		if m.schedules[i].ID == s.ID {
			m.schedules[i] = s
			return nil
		}
	}
	m.schedules = append(m.schedules, s)
	return nil
}

// Delete removes a schedule by ID. Deleting a missing ID is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.schedules {
		if m.schedules[i].ID == id {
			m.schedules = append(m.schedules[:i], m.schedules[i+1:]...)
			return nil
		}
	}
	return nil
}

// Compile-time check that MemoryStore implements schedule.Store.
var _ schedule.Store = (*MemoryStore)(nil)
