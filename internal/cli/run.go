package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

type runOptions struct {
	groupSize int
	cooldown  time.Duration
	limit     int
	symbols   []string
}

func newRunCmd(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch over the exchange's symbol universe",
		Example: `  earnings-batch run
  earnings-batch run --group-size 450 --cooldown 30s
  earnings-batch run --symbols AAPL,MSFT,NVDA`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, &app.Config.Batch)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := app.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			runner := app.runner(c, opts.limit)

			var result models.RunResult
			if symbols := normalizeSymbols(opts.symbols); len(symbols) > 0 {
				result, err = runner.RunSymbols(ctx, symbols)
			} else {
				result, err = runner.RunOnce(ctx)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d succeeded=%d failed=%d\n",
				result.Processed, result.Succeeded, result.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.groupSize, "group-size", 0, "symbols processed concurrently per group (default from BATCH_GROUP_SIZE)")
	cmd.Flags().DurationVar(&opts.cooldown, "cooldown", 0, "pause between groups (default from BATCH_COOLDOWN)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "process only the first N symbols")
	cmd.Flags().StringSliceVar(&opts.symbols, "symbols", nil, "explicit comma-separated universe instead of the exchange list")

	return cmd
}

// apply overrides batch configuration with flags the user actually set
func (o *runOptions) apply(cmd *cobra.Command, batch *config.BatchConfig) {
	if cmd.Flags().Changed("group-size") {
		batch.GroupSize = o.groupSize
	}
	if cmd.Flags().Changed("cooldown") {
		batch.Cooldown = o.cooldown
	}
}

// normalizeSymbols upper-cases, trims and de-duplicates symbols, keeping order
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
