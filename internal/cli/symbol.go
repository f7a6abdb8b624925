package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Protagonist888/schwab-earnings-batch/internal/earnings"
)

func newSymbolCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "symbol <TICKER>",
		Short:   "Compute and cache the earnings summary for one symbol",
		Example: "  earnings-batch symbol AAPL\n  earnings-batch symbol MSFT --dry-run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			ctx := cmd.Context()

			c, err := app.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			summary, err := c.processor.Compute(ctx, symbol)
			if earnings.IsSkip(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s skipped: %v\n", symbol, err)
				return nil
			}
			if err != nil {
				return err
			}

			if !dryRun {
				if err := c.store.Store(ctx, summary); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the summary without caching it")
	return cmd
}
