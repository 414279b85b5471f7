package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cfgbk-go/internal/app"
	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, bk.ErrCancelled):
		fmt.Println("Restore cancelled; no changes made.")
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the settings file, falling back to defaults when it does not exist.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates an App. The caller must defer app.Close().
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewApp(cfg, operation, app.Options{
		Verbose: verbose,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// runMode executes one pipeline in a fresh App.
func runMode(cmd *cobra.Command, mode bk.Mode, req app.Request) error {
	a, err := newApp(cmd, mode.String())
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(cmd.Context(), mode, req)
}

var rootCmd = &cobra.Command{
	Use:           "cfgbk",
	Short:         "Declarative configuration backup and restore",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with default values",
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
		fmt.Printf("Tasks:    %s (relative to the working directory)\n", defaults["tasks_path"])
		fmt.Printf("Output:   %s (relative to the working directory)\n", defaults["output_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Tasks:       %s\n", cfg.TasksPath)
		fmt.Printf("Output Dir:  %s\n", cfg.OutputDir)
		fmt.Printf("Temp Dir:    %s\n", valueOr(cfg.Staging.TempDir, os.TempDir()))
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Ignore:      %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
		return nil
	},
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up every task into a new archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, _ := cmd.Flags().GetString("config")
		output, _ := cmd.Flags().GetString("output")
		name, _ := cmd.Flags().GetString("name")

		return runMode(cmd, bk.ModeBackup, app.Request{
			TasksPath:   tasks,
			OutputDir:   output,
			ArchiveName: name,
		})
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore ARCHIVE",
	Short: "Restore task paths from an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		output, _ := cmd.Flags().GetString("output")

		return runMode(cmd, bk.ModeRestore, app.Request{
			ArchivePath: args[0],
			GroupFilter: group,
			OutputDir:   output,
		})
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status ARCHIVE",
	Short: "Show what a restore from ARCHIVE would do",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")

		return runMode(cmd, bk.ModeStatus, app.Request{
			ArchivePath: args[0],
			GroupFilter: group,
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent operations and archives",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, archives, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
		}
		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-10s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}

		if len(archives) > 0 {
			fmt.Println()
			fmt.Println("Archives:")
		}
		for _, rec := range archives {
			fmt.Printf("%s  %-10s  %2d task(s)  %s\n",
				rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				rec.Kind,
				rec.TaskCount,
				rec.Path,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug detail")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringP("config", "c", "", "Task document (default: tasks_path setting)")
	backupCmd.Flags().StringP("output", "o", "", "Directory for the archive (default: output_dir setting)")
	backupCmd.Flags().StringP("name", "n", "", "Archive name without extension (default: timestamp and random suffix)")
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringP("group", "g", "", "Restore only this task")
	restoreCmd.Flags().StringP("output", "o", "", "Directory for the safety backup (default: output_dir setting)")
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("group", "g", "", "Preview only this task")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
}
