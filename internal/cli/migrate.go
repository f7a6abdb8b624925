package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Protagonist888/schwab-earnings-batch/internal/database"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config.Database
			if !cfg.Enabled {
				return errors.New("database is disabled; set DB_ENABLED=true")
			}

			db, err := database.New(cfg.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
				return err
			}

			app.Logger.Info().Str("path", cfg.MigrationsPath).Msg("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
