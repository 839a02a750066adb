package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"csync-go/internal/app"
	"csync-go/internal/schedule"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring syncs",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add NAME SOURCE DEST",
	Short: "Create a recurring sync (targets are remote:path or a local path)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		freq, _ := flags.GetString("frequency")
		syncType, _ := flags.GetString("type")
		hour, _ := flags.GetInt("hour")
		minute, _ := flags.GetInt("minute")
		interval, _ := flags.GetInt("interval")
		daysFlag, _ := flags.GetString("days")
		disabled, _ := flags.GetBool("disabled")

		frequency := schedule.Frequency(freq)
		switch frequency {
		case schedule.FrequencyHourly, schedule.FrequencyDaily, schedule.FrequencyWeekly, schedule.FrequencyCustom:
		default:
			return fmt.Errorf("invalid frequency %q (want hourly, daily, weekly or custom)", freq)
		}

		s := schedule.SyncSchedule{
			Name:      args[0],
			IsEnabled: !disabled,
			SyncType:  schedule.SyncType(syncType),
			Frequency: frequency,
		}
		s.SourceRemote, s.SourcePath = parseTarget(args[1])
		s.DestinationRemote, s.DestinationPath = parseTarget(args[2])

		if flags.Changed("hour") {
			s.ScheduledHour = &hour
		}
		if flags.Changed("minute") {
			s.ScheduledMinute = &minute
		}
		if flags.Changed("interval") {
			s.CustomIntervalMinutes = &interval
		}
		if daysFlag != "" {
			days, err := parseDays(daysFlag)
			if err != nil {
				return err
			}
			s.ScheduledDays = days
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		added, err := a.Schedules().Add(ctx, s)
		if err != nil {
			return err
		}

		fmt.Printf("Schedule %q created (%s)\n", added.Name, added.ID)
		fmt.Printf("  %s\n", added.FormattedSchedule())
		fmt.Printf("  Next run: %s\n", added.FormattedNextRun(time.Now()))
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		schedules := a.Schedules().List()
		if len(schedules) == 0 {
			fmt.Println("No schedules.")
			return nil
		}

		now := time.Now()
		for _, s := range schedules {
			state := "enabled"
			if !s.IsEnabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-20s  %-8s  %s -> %s\n",
				s.ID, s.Name, state,
				s.SourceRemote+":"+s.SourcePath,
				s.DestinationRemote+":"+s.DestinationPath)
			fmt.Printf("    %s\n", s.FormattedSchedule())
			fmt.Printf("    Next: %-20s  Last: %s (%d runs, %d failures)\n",
				s.FormattedNextRun(now), s.FormattedLastRun(now), s.RunCount, s.FailureCount)
		}

		fmt.Printf("\n%s\n", a.Schedules().FormattedNextRun(now))
		return nil
	},
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(cmd, args[0], true) },
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(cmd, args[0], false) },
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := findSchedule(a, args[0])
		if err != nil {
			return err
		}

		if err := a.Schedules().Delete(ctx, s.ID); err != nil {
			return err
		}
		fmt.Printf("Schedule %q deleted\n", s.Name)
		return nil
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run a schedule immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := findSchedule(a, args[0])
		if err != nil {
			return err
		}

		if err := a.Service().RunSchedule(ctx, s.ID); err != nil {
			return err
		}
		fmt.Printf("Schedule %q ran successfully\n", s.Name)
		return nil
	},
}

// setEnabled toggles the schedule only when its state differs from want.
func setEnabled(cmd *cobra.Command, ref string, want bool) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := findSchedule(a, ref)
	if err != nil {
		return err
	}

	if s.IsEnabled == want {
		fmt.Printf("Schedule %q is already %s\n", s.Name, stateWord(want))
		return nil
	}

	toggled, err := a.Schedules().Toggle(ctx, s.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Schedule %q %s\n", toggled.Name, stateWord(toggled.IsEnabled))
	if toggled.IsEnabled {
		fmt.Printf("  Next run: %s\n", toggled.FormattedNextRun(time.Now()))
	}
	return nil
}

func stateWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// findSchedule resolves a schedule by ID first, then by name.
func findSchedule(a *app.App, ref string) (schedule.SyncSchedule, error) {
	if s, ok := a.Schedules().Get(ref); ok {
		return s, nil
	}
	for _, s := range a.Schedules().List() {
		if s.Name == ref {
			return s, nil
		}
	}
	return schedule.SyncSchedule{}, fmt.Errorf("schedule not found: %s", ref)
}

// parseDays parses a comma-separated weekday list (1=Sunday .. 7=Saturday).
func parseDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 1 || d > 7 {
			return nil, fmt.Errorf("invalid weekday %q (want 1-7, 1=Sunday)", part)
		}
		days = append(days, d)
	}
	return days, nil
}

func init() {
	f := scheduleAddCmd.Flags()
	f.String("frequency", "daily", "hourly, daily, weekly or custom")
	f.String("type", string(schedule.SyncTypeSync), "transfer, sync or backup")
	f.Int("hour", 2, "Hour of day (daily/weekly)")
	f.Int("minute", 0, "Minute of the hour")
	f.Int("interval", 60, "Interval in minutes (custom)")
	f.String("days", "", "Comma-separated weekdays, 1=Sunday .. 7=Saturday (weekly)")
	f.Bool("disabled", false, "Create the schedule disabled")

	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
}
