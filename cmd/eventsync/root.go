package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

// rootOptions holds the global flags and what PersistentPreRunE loads.
type rootOptions struct {
	LogLevel string

	cfg *config.Config
	log *logrus.Logger
}

// NewRootCommand creates the eventsync command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "eventsync",
		Short:   "Sync Facebook events and birthdays into local calendars",
		Version: version,
		Long: `eventsync pulls events and birthdays from Facebook feeds and reconciles
them into one local calendar per RSVP category.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			opts.cfg = cfg
			opts.log = logger.NewWithOutput(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}
