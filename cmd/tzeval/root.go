package main

import (
	"log/slog"
	"strings"

	"github.com/cyp0633/tzeval/internal/config"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has loaded the
// configuration.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tzeval",
		Short: "tzeval evaluates iCalendar time zone observances",
		Long: `tzeval reads the VTIMEZONE components of an .ics file and computes the
contiguous periods during which each STANDARD and DAYLIGHT observance is in effect.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newListCmd(a),
		newPeriodsCmd(a),
		newOffsetCmd(a),
		newInitConfigCmd(a),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
		cfg.Normalize()
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}
