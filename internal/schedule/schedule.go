// Package schedule maintains recurring sync definitions and the calendar
// arithmetic that decides when each one next runs.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is how often a schedule recurs.
type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Description returns the human label for a frequency.
func (f Frequency) Description() string {
	switch f {
	case FrequencyHourly:
		return "Every hour"
	case FrequencyDaily:
		return "Once a day"
	case FrequencyWeekly:
		return "Once a week"
	default:
		return "Custom interval"
	}
}

// SyncType is the engine operation a schedule performs.
type SyncType string

const (
	SyncTypeTransfer SyncType = "transfer"
	SyncTypeSync     SyncType = "sync"
	SyncTypeBackup   SyncType = "backup"
)

// SyncSchedule is one recurring sync definition. Weekdays use 1=Sunday
// through 7=Saturday. NextRunAt is nil whenever the schedule is disabled and
// is recomputed on enable and after every run.
type SyncSchedule struct {
	ID        string
	Name      string
	IsEnabled bool

	SourceRemote       string
	SourcePath         string
	DestinationRemote  string
	DestinationPath    string
	SyncType           SyncType
	EncryptSource      bool
	EncryptDestination bool

	Frequency             Frequency
	CustomIntervalMinutes *int
	ScheduledHour         *int
	ScheduledMinute       *int
	ScheduledDays         []int

	LastRunAt      *time.Time
	LastRunSuccess *bool
	LastRunError   *string
	NextRunAt      *time.Time
	RunCount       int
	FailureCount   int

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// HasEncryption reports whether either side of the schedule is encrypted.
func (s *SyncSchedule) HasEncryption() bool {
	return s.EncryptSource || s.EncryptDestination
}

func (s *SyncSchedule) hour() int {
	if s.ScheduledHour != nil {
		return *s.ScheduledHour
	}
	return 2
}

func (s *SyncSchedule) minute() int {
	if s.ScheduledMinute != nil {
		return *s.ScheduledMinute
	}
	return 0
}

func (s *SyncSchedule) intervalMinutes() int {
	if s.CustomIntervalMinutes != nil {
		return *s.CustomIntervalMinutes
	}
	return 60
}

// CalculateNextRun returns the next time the schedule should fire after
// from, or nil for a weekly schedule with no weekdays selected. That gap is
// a configuration problem for the user to fix, not an error.
func (s *SyncSchedule) CalculateNextRun(from time.Time) *time.Time {
	switch s.Frequency {
	case FrequencyHourly:
		next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(),
			s.minute(), 0, 0, from.Location())
		if !next.After(from) {
			next = next.Add(time.Hour)
		}
		return &next

	case FrequencyDaily:
		next := time.Date(from.Year(), from.Month(), from.Day(), s.hour(),
			s.minute(), 0, 0, from.Location())
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return &next

	case FrequencyWeekly:
		if len(s.ScheduledDays) == 0 {
			return nil
		}
		days := make(map[int]bool, len(s.ScheduledDays))
		for _, d := range s.ScheduledDays {
			days[d] = true
		}
		for offset := 0; offset < 8; offset++ {
			day := from.AddDate(0, 0, offset)
			if !days[int(day.Weekday())+1] {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(),
				s.hour(), s.minute(), 0, 0, from.Location())
			if candidate.After(from) {
				return &candidate
			}
		}
		return nil

	case FrequencyCustom:
		next := from.Add(time.Duration(s.intervalMinutes()) * time.Minute)
		return &next

	default:
		return nil
	}
}

// FormattedNextRun renders the next-run delta relative to now.
func (s *SyncSchedule) FormattedNextRun(now time.Time) string {
	if s.NextRunAt == nil {
		return "Not scheduled"
	}
	return formatDelta(s.NextRunAt.Sub(now), *s.NextRunAt)
}

func formatDelta(d time.Duration, at time.Time) string {
	switch {
	case d < 0:
		return "Overdue"
	case d < time.Minute:
		return "In less than a minute"
	case d < time.Hour:
		return fmt.Sprintf("In %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("In %d hr", int(d.Hours()))
	default:
		return at.Format("1/2/06, 3:04 PM")
	}
}

// FormattedLastRun renders how long ago the schedule last ran.
func (s *SyncSchedule) FormattedLastRun(now time.Time) string {
	if s.LastRunAt == nil {
		return "Never"
	}
	d := now.Sub(*s.LastRunAt)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(d.Hours()))
	default:
		return s.LastRunAt.Format("1/2/06, 3:04 PM")
	}
}

// FormattedSchedule renders the recurrence rule, e.g. "Daily at 2:00 AM" or
// "Weekdays at 6:30 PM".
func (s *SyncSchedule) FormattedSchedule() string {
	switch s.Frequency {
	case FrequencyHourly:
		return "Every hour"
	case FrequencyDaily:
		return "Daily at " + formatClock(s.hour(), s.minute())
	case FrequencyWeekly:
		return s.formattedDays() + " at " + formatClock(s.hour(), s.minute())
	default:
		minutes := s.intervalMinutes()
		if minutes < 60 {
			return fmt.Sprintf("Every %d min", minutes)
		}
		return fmt.Sprintf("Every %d hr", minutes/60)
	}
}

var dayNames = []string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (s *SyncSchedule) formattedDays() string {
	if len(s.ScheduledDays) == 0 {
		return "No days"
	}

	set := make(map[int]bool, len(s.ScheduledDays))
	for _, d := range s.ScheduledDays {
		set[d] = true
	}

	switch {
	case len(set) == 7:
		return "Every day"
	case len(set) == 5 && set[2] && set[3] && set[4] && set[5] && set[6]:
		return "Weekdays"
	case len(set) == 2 && set[1] && set[7]:
		return "Weekends"
	}

	sorted := make([]int, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Ints(sorted)

	names := make([]string, 0, len(sorted))
	for _, d := range sorted {
		if d >= 1 && d <= 7 {
			names = append(names, dayNames[d])
		}
	}
	return strings.Join(names, ", ")
}

func formatClock(hour, minute int) string {
	t := time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
