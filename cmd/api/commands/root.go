// Package commands implements the taskprio CLI using cobra.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/config"
	"task-prioritizer-backend/internal/logging"
)

var (
	// Version is set at build time
	Version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "taskprio",
	Short: "Task prioritization service and client",
	Long: `taskprio ranks tasks by deadline, importance, effort and how many
other tasks they unblock.

Run "taskprio serve" to start the API, then "taskprio analyze --file tasks.json"
to get an ordered, explained list.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and installs the configured global logger.
// Callers close the logger when the command returns.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	return nil
}
