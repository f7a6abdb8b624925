// Package cli provides the earnings-batch command-line interface.
package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
)

// App holds the dependencies shared by every command
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics.New(registry),
	}

	rootCmd := &cobra.Command{
		Use:   "earnings-batch",
		Short: "Compute and cache average earnings-day moves for listed equities",
		Long: `earnings-batch estimates, for every symbol on an exchange, the average
absolute close-to-close move across past earnings announcements and the
date of the next announcement, and caches the result in Redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newSymbolCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newMigrateCmd(app))

	return rootCmd
}
