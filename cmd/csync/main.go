package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"csync-go/internal/app"
	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/schedule"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a wired App. The caller must defer a.Close().
func newApp(ctx context.Context) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// parseTarget splits "remote:path" into its parts. A bare path (no colon)
// is a local target.
func parseTarget(s string) (remote, path string) {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "local", s
}

var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Cloud sync controller for an rclone-compatible engine",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Engine:   %s\n", cfg.Engine.BinPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Engine:        %s\n", cfg.Engine.BinPath)
		fmt.Printf("Engine Config: %s\n", cfg.Engine.ConfigPath)
		fmt.Printf("Database:      %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Multi-thread:  enabled=%v streams=%d cutoff=%d bytes\n",
			cfg.Transfer.MultiThreadEnabled, cfg.Transfer.MultiThreadStreams, cfg.Transfer.MultiThreadCutoffBytes)
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run SOURCE DEST",
	Short: "Run a one-off transfer (targets are remote:path or a local path)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		syncType, _ := cmd.Flags().GetString("type")
		if syncType != string(schedule.SyncTypeTransfer) &&
			syncType != string(schedule.SyncTypeSync) &&
			syncType != string(schedule.SyncTypeBackup) {
			return fmt.Errorf("invalid type %q (want transfer, sync or backup)", syncType)
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srcRemote, srcPath := parseTarget(args[0])
		dstRemote, dstPath := parseTarget(args[1])

		result, err := a.Service().Run(ctx, csync.SyncRequest{
			SourceRemote:      srcRemote,
			SourcePath:        srcPath,
			DestinationRemote: dstRemote,
			DestinationPath:   dstPath,
			SyncType:          schedule.SyncType(syncType),
		})
		if err != nil {
			if result.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", result.Err.Title(), result.Err.UserMessage())
				if result.Err.Retryable() {
					fmt.Fprintln(os.Stderr, "This error is usually transient; try again.")
				}
			}
			return err
		}

		fmt.Printf("Transfer complete: %s -> %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	runCmd.Flags().String("type", string(schedule.SyncTypeTransfer), "Transfer type: transfer, sync or backup")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(serviceCmd)
}
