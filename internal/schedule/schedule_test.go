package schedule_test

import (
	"testing"
	"time"

	"csync-go/internal/schedule"
)

func intPtr(n int) *int { return &n }

// base is a Monday at 10:30 local to the test's fixed zone.
var base = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestCalculateNextRun_Hourly(t *testing.T) {
	t.Parallel()

	t.Run("minute still ahead in this hour", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyHourly, ScheduledMinute: intPtr(45)}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 15, 10, 45, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("minute already passed rolls to next hour", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyHourly, ScheduledMinute: intPtr(15)}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 15, 11, 15, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("exact minute rolls forward", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyHourly, ScheduledMinute: intPtr(30)}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 15, 11, 30, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})
}

func TestCalculateNextRun_Daily(t *testing.T) {
	t.Parallel()

	t.Run("time still ahead today", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyDaily, ScheduledHour: intPtr(14), ScheduledMinute: intPtr(0)}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("time already passed rolls to tomorrow", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyDaily, ScheduledHour: intPtr(2), ScheduledMinute: intPtr(0)}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("defaults to 2am", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyDaily}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})
}

func TestCalculateNextRun_Weekly(t *testing.T) {
	t.Parallel()

	// base is a Monday; weekdays are 1=Sunday through 7=Saturday, so
	// Monday is 2.

	t.Run("same day later time", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{
			Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{2},
			ScheduledHour: intPtr(14), ScheduledMinute: intPtr(0),
		}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("same day earlier time waits a week", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{
			Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{2},
			ScheduledHour: intPtr(9), ScheduledMinute: intPtr(0),
		}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("picks the nearest selected day", func(t *testing.T) {
		t.Parallel()
		// Wednesday is 4, Friday is 6; from Monday the nearest is Wednesday.
		s := schedule.SyncSchedule{
			Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{6, 4},
			ScheduledHour: intPtr(8), ScheduledMinute: intPtr(30),
		}
		got := s.CalculateNextRun(base)
		want := time.Date(2024, 1, 17, 8, 30, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("CalculateNextRun = %v, want %v", got, want)
		}
	})

	t.Run("empty day set yields nil", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{Frequency: schedule.FrequencyWeekly, ScheduledHour: intPtr(9)}
		if got := s.CalculateNextRun(base); got != nil {
			t.Errorf("CalculateNextRun = %v, want nil for empty day set", got)
		}
	})
}

func TestCalculateNextRun_Custom(t *testing.T) {
	t.Parallel()

	s := schedule.SyncSchedule{Frequency: schedule.FrequencyCustom, CustomIntervalMinutes: intPtr(30)}
	got := s.CalculateNextRun(base)
	if got == nil {
		t.Fatal("CalculateNextRun = nil")
	}
	want := base.Add(30 * time.Minute)
	if diff := got.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("CalculateNextRun = %v, want %v within 1s", got, want)
	}
}

func TestFormattedNextRun(t *testing.T) {
	t.Parallel()

	at := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name string
		next *time.Time
		want string
	}{
		{"nil is not scheduled", nil, "Not scheduled"},
		{"past is overdue", at(base.Add(-time.Minute)), "Overdue"},
		{"under a minute", at(base.Add(30 * time.Second)), "In less than a minute"},
		{"minutes", at(base.Add(25 * time.Minute)), "In 25 min"},
		{"hours", at(base.Add(3 * time.Hour)), "In 3 hr"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := schedule.SyncSchedule{NextRunAt: tt.next}
			if got := s.FormattedNextRun(base); got != tt.want {
				t.Errorf("FormattedNextRun = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("beyond a day shows the date", func(t *testing.T) {
		t.Parallel()
		next := base.Add(48 * time.Hour)
		s := schedule.SyncSchedule{NextRunAt: &next}
		if got := s.FormattedNextRun(base); got != "1/17/24, 10:30 AM" {
			t.Errorf("FormattedNextRun = %q, want 1/17/24, 10:30 AM", got)
		}
	})
}

func TestFormattedLastRun(t *testing.T) {
	t.Parallel()

	t.Run("never ran", func(t *testing.T) {
		t.Parallel()
		s := schedule.SyncSchedule{}
		if got := s.FormattedLastRun(base); got != "Never" {
			t.Errorf("FormattedLastRun = %q, want Never", got)
		}
	})

	t.Run("recent buckets", func(t *testing.T) {
		t.Parallel()
		for _, tt := range []struct {
			ago  time.Duration
			want string
		}{
			{10 * time.Second, "Just now"},
			{5 * time.Minute, "5 min ago"},
			{2 * time.Hour, "2 hr ago"},
		} {
			last := base.Add(-tt.ago)
			s := schedule.SyncSchedule{LastRunAt: &last}
			if got := s.FormattedLastRun(base); got != tt.want {
				t.Errorf("FormattedLastRun(%v ago) = %q, want %q", tt.ago, got, tt.want)
			}
		}
	})
}

func TestFormattedSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    schedule.SyncSchedule
		want string
	}{
		{"hourly", schedule.SyncSchedule{Frequency: schedule.FrequencyHourly}, "Every hour"},
		{
			"daily",
			schedule.SyncSchedule{Frequency: schedule.FrequencyDaily, ScheduledHour: intPtr(2), ScheduledMinute: intPtr(0)},
			"Daily at 2:00 AM",
		},
		{
			"weekdays",
			schedule.SyncSchedule{
				Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{2, 3, 4, 5, 6},
				ScheduledHour: intPtr(18), ScheduledMinute: intPtr(30),
			},
			"Weekdays at 6:30 PM",
		},
		{
			"weekends",
			schedule.SyncSchedule{
				Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{1, 7},
				ScheduledHour: intPtr(8), ScheduledMinute: intPtr(0),
			},
			"Weekends at 8:00 AM",
		},
		{
			"every day",
			schedule.SyncSchedule{
				Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{1, 2, 3, 4, 5, 6, 7},
				ScheduledHour: intPtr(0), ScheduledMinute: intPtr(0),
			},
			"Every day at 12:00 AM",
		},
		{
			"named days",
			schedule.SyncSchedule{
				Frequency: schedule.FrequencyWeekly, ScheduledDays: []int{6, 2},
				ScheduledHour: intPtr(7), ScheduledMinute: intPtr(15),
			},
			"Mon, Fri at 7:15 AM",
		},
		{
			"no days selected",
			schedule.SyncSchedule{Frequency: schedule.FrequencyWeekly, ScheduledHour: intPtr(7), ScheduledMinute: intPtr(0)},
			"No days at 7:00 AM",
		},
		{
			"custom minutes",
			schedule.SyncSchedule{Frequency: schedule.FrequencyCustom, CustomIntervalMinutes: intPtr(45)},
			"Every 45 min",
		},
		{
			"custom hours",
			schedule.SyncSchedule{Frequency: schedule.FrequencyCustom, CustomIntervalMinutes: intPtr(120)},
			"Every 2 hr",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.s.FormattedSchedule(); got != tt.want {
				t.Errorf("FormattedSchedule = %q, want %q", got, tt.want)
			}
		})
	}
}
