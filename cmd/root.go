package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brk3/habitbot/internal/config"
	"github.com/brk3/habitbot/internal/logger"
)

var (
	cfg      config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "habitbot",
	Short: "Track daily and weekly habits from a Telegram chat",
	Long: `
	Habitbot is a Telegram bot for tracking habits. Users create daily or weekly
	habits, mark them done from an inline picker, get reminders at a chosen time
	and read today/week/month progress reports. The same binary also queries a
	running bot's HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		return logger.Setup(logger.Options{
			Level:  level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
			Output: cmd.ErrOrStderr(),
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}
