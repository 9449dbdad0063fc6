package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations.",
		Long: `Migrates the configured database to --db-migration-version, or to the
latest version when it is 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := a.migrate(db, a.config.Database.MigrationVersion); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "database is up to date")
			return nil
		},
	}
}
