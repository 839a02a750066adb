package schedule_test

import (
	"context"
	"testing"
	"time"

	"csync-go/internal/database"
	"csync-go/internal/schedule"
	"csync-go/internal/testutil"
)

func newManager(t *testing.T) (*schedule.Manager, *testutil.StubClock) {
	t.Helper()
	clock := testutil.NewStubClock(base)
	m := schedule.NewManager(database.NewMemoryStore(), clock, testutil.NewStubIDGenerator(), nil)
	return m, clock
}

func newSchedule(name string) schedule.SyncSchedule {
	hour, minute := 14, 0
	return schedule.SyncSchedule{
		Name:              name,
		IsEnabled:         true,
		SourceRemote:      "gdrive",
		SourcePath:        "photos",
		DestinationRemote: "local",
		DestinationPath:   "/backups/photos",
		SyncType:          schedule.SyncTypeSync,
		Frequency:         schedule.FrequencyDaily,
		ScheduledHour:     &hour,
		ScheduledMinute:   &minute,
	}
}

func TestManager_Add(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	added, err := m.Add(context.Background(), newSchedule("photos"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if added.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", added.ID)
	}
	if added.NextRunAt == nil {
		t.Fatal("NextRunAt = nil, want computed on add")
	}
	want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	if !added.NextRunAt.Equal(want) {
		t.Errorf("NextRunAt = %v, want %v", added.NextRunAt, want)
	}
	if !added.CreatedAt.Equal(base) || !added.ModifiedAt.Equal(base) {
		t.Errorf("timestamps = %v/%v, want %v", added.CreatedAt, added.ModifiedAt, base)
	}
}

func TestManager_Toggle(t *testing.T) {
	t.Parallel()

	m, clock := newManager(t)
	added, err := m.Add(context.Background(), newSchedule("photos"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	disableTime := clock.Now()
	disabled, err := m.Toggle(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if disabled.IsEnabled {
		t.Fatal("IsEnabled = true after disable")
	}
	if disabled.NextRunAt != nil {
		t.Errorf("NextRunAt = %v, want nil while disabled", disabled.NextRunAt)
	}

	clock.Advance(10 * time.Minute)

	enabled, err := m.Toggle(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !enabled.IsEnabled {
		t.Fatal("IsEnabled = false after re-enable")
	}
	if enabled.NextRunAt == nil {
		t.Fatal("NextRunAt = nil after re-enable")
	}
	if !enabled.NextRunAt.After(disableTime) {
		t.Errorf("NextRunAt = %v, want after disable time %v", enabled.NextRunAt, disableTime)
	}
}

func TestManager_Update(t *testing.T) {
	t.Parallel()

	m, clock := newManager(t)
	added, err := m.Add(context.Background(), newSchedule("photos"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	clock.Advance(time.Minute)

	changed := added
	hour := 20
	changed.ScheduledHour = &hour
	if err := m.Update(context.Background(), changed); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, ok := m.Get(added.ID)
	if !ok {
		t.Fatal("Get() ok = false")
	}
	want := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	if got.NextRunAt == nil || !got.NextRunAt.Equal(want) {
		t.Errorf("NextRunAt = %v, want %v", got.NextRunAt, want)
	}
	if !got.ModifiedAt.After(got.CreatedAt) {
		t.Errorf("ModifiedAt = %v, want after CreatedAt %v", got.ModifiedAt, got.CreatedAt)
	}

	t.Run("unknown id", func(t *testing.T) {
		missing := newSchedule("ghost")
		missing.ID = "nope"
		if err := m.Update(context.Background(), missing); err == nil {
			t.Error("Update(unknown) error = nil, want not found")
		}
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	added, err := m.Add(context.Background(), newSchedule("photos"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := m.Delete(context.Background(), added.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := m.Get(added.ID); ok {
		t.Error("Get() ok = true after delete")
	}
	if err := m.Delete(context.Background(), added.ID); err == nil {
		t.Error("second Delete() error = nil, want not found")
	}
}

func TestManager_MarkRun(t *testing.T) {
	t.Parallel()

	t.Run("success clears the last error", func(t *testing.T) {
		t.Parallel()
		m, clock := newManager(t)
		added, _ := m.Add(context.Background(), newSchedule("photos"))

		clock.Advance(4 * time.Hour) // past the 14:00 slot

		if err := m.MarkRun(context.Background(), added.ID, true, ""); err != nil {
			t.Fatalf("MarkRun() error = %v", err)
		}

		got, _ := m.Get(added.ID)
		if got.RunCount != 1 || got.FailureCount != 0 {
			t.Errorf("counts = %d/%d, want 1/0", got.RunCount, got.FailureCount)
		}
		if got.LastRunSuccess == nil || !*got.LastRunSuccess {
			t.Error("LastRunSuccess = false, want true")
		}
		if got.LastRunError != nil {
			t.Errorf("LastRunError = %q, want nil", *got.LastRunError)
		}
		// Next run advances past the slot that just ran.
		want := time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC)
		if got.NextRunAt == nil || !got.NextRunAt.Equal(want) {
			t.Errorf("NextRunAt = %v, want %v", got.NextRunAt, want)
		}
	})

	t.Run("failure records the error", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t)
		added, _ := m.Add(context.Background(), newSchedule("photos"))

		if err := m.MarkRun(context.Background(), added.ID, false, "quota exceeded"); err != nil {
			t.Fatalf("MarkRun() error = %v", err)
		}

		got, _ := m.Get(added.ID)
		if got.RunCount != 1 || got.FailureCount != 1 {
			t.Errorf("counts = %d/%d, want 1/1", got.RunCount, got.FailureCount)
		}
		if got.LastRunError == nil || *got.LastRunError != "quota exceeded" {
			t.Errorf("LastRunError = %v, want quota exceeded", got.LastRunError)
		}
	})
}

func TestManager_NextScheduledRun(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)

	if got := m.FormattedNextRun(base); got != "No schedules" {
		t.Errorf("FormattedNextRun = %q, want No schedules", got)
	}

	later := newSchedule("nightly")
	hour := 22
	later.ScheduledHour = &hour
	if _, err := m.Add(context.Background(), later); err != nil {
		t.Fatal(err)
	}

	soon := newSchedule("frequent")
	soon.Frequency = schedule.FrequencyCustom
	interval := 30
	soon.CustomIntervalMinutes = &interval
	if _, err := m.Add(context.Background(), soon); err != nil {
		t.Fatal(err)
	}

	next, ok := m.NextScheduledRun()
	if !ok {
		t.Fatal("NextScheduledRun ok = false")
	}
	if next.Name != "frequent" {
		t.Errorf("next = %q, want frequent", next.Name)
	}
	if got := m.FormattedNextRun(base); got != "frequent: In 30 min" {
		t.Errorf("FormattedNextRun = %q, want frequent: In 30 min", got)
	}
}

func TestManager_Due(t *testing.T) {
	t.Parallel()

	m, clock := newManager(t)
	added, _ := m.Add(context.Background(), newSchedule("photos"))

	if due := m.Due(clock.Now()); len(due) != 0 {
		t.Errorf("Due() = %d schedules before the slot, want 0", len(due))
	}

	clock.Advance(4 * time.Hour)
	due := m.Due(clock.Now())
	if len(due) != 1 || due[0].ID != added.ID {
		t.Errorf("Due() = %+v, want the photos schedule", due)
	}

	if _, err := m.Toggle(context.Background(), added.ID); err != nil {
		t.Fatal(err)
	}
	if due := m.Due(clock.Now()); len(due) != 0 {
		t.Errorf("Due() = %d schedules while disabled, want 0", len(due))
	}
}

func TestManager_Load(t *testing.T) {
	t.Parallel()

	store := database.NewMemoryStore()
	clock := testutil.NewStubClock(base)
	ids := testutil.NewStubIDGenerator()

	first := schedule.NewManager(store, clock, ids, nil)
	added, err := first.Add(context.Background(), newSchedule("photos"))
	if err != nil {
		t.Fatal(err)
	}

	// A fresh manager over the same store sees the schedule and recomputes
	// its next run.
	second := schedule.NewManager(store, clock, ids, nil)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, ok := second.Get(added.ID)
	if !ok {
		t.Fatal("Get() ok = false after Load")
	}
	if got.Name != "photos" {
		t.Errorf("Name = %q, want photos", got.Name)
	}
	if got.NextRunAt == nil {
		t.Error("NextRunAt = nil, want recomputed on load")
	}
}
