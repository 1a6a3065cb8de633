// Package cmd implements the pairlink CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pairlink/internal/config"
)

var (
	configPathFlag string
	verboseFlag    bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairlink",
		Short: "Pair this machine with a remote device through a pairing gateway",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	cmd.AddCommand(pairCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(disconnectCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(configCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath picks the config file: --config flag, then
// PAIRLINK_CONFIG, then the default location.
func resolveConfigPath() string {
	if configPathFlag != "" {
		return configPathFlag
	}
	if env := os.Getenv("PAIRLINK_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	return config.Load(resolveConfigPath())
}

func setupLogging() {
	level := slog.LevelInfo
	if cfg, err := loadConfig(); err == nil {
		switch cfg.Log.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	if verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
