package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"csync-go/internal/app"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the schedule daemon",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runDaemon(ctx)
	},
}

// runDaemon wires the app and blocks on the scheduler loop until ctx is
// cancelled.
func runDaemon(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Config().Scheduler.WatchConfig {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		go a.Scheduler().WatchConfig(ctx, defaults["config_path"])
	}

	if err := a.Scheduler().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// program adapts the daemon to the service manager's lifecycle interface.
type program struct {
	cancel context.CancelFunc
}

func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go runDaemon(ctx)
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

func getService() (service.Service, error) {
	svcConfig := &service.Config{
		Name:        "csync",
		DisplayName: "csync scheduler",
		Description: "Runs recurring cloud syncs on their schedules.",
		Arguments:   []string{"scheduler", "run"},
	}
	return service.New(&program{}, svcConfig)
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the scheduler as a system service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the scheduler service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}

		if status, err := s.Status(); err == nil {
			if status == service.StatusRunning {
				fmt.Println("Service is already installed and running.")
			} else {
				fmt.Println("Service is already installed (stopped).")
			}
			return nil
		}

		if err := s.Install(); err != nil {
			return fmt.Errorf("installing service: %w", err)
		}
		fmt.Println("Service installed.")

		if err := s.Start(); err != nil {
			return fmt.Errorf("starting service: %w", err)
		}
		fmt.Println("Service started.")
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the scheduler service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}

		// Best effort; the service may already be stopped.
		_ = s.Stop()

		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("uninstalling service: %w", err)
		}
		fmt.Println("Service uninstalled.")
		return nil
	},
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return fmt.Errorf("starting service: %w", err)
		}
		fmt.Println("Service started.")
		return nil
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}
		if err := s.Stop(); err != nil {
			return fmt.Errorf("stopping service: %w", err)
		}
		fmt.Println("Service stopped.")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getService()
		if err != nil {
			return err
		}

		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("querying service status: %w", err)
		}

		switch status {
		case service.StatusRunning:
			fmt.Println("Service is running.")
		case service.StatusStopped:
			fmt.Println("Service is stopped.")
		default:
			fmt.Println("Service status unknown.")
		}
		return nil
	},
}

func init() {
	schedulerCmd.AddCommand(schedulerRunCmd)

	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceStopCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}
