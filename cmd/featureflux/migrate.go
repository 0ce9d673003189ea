package main

import (
	"github.com/spf13/cobra"

	"github.com/BrendanKechtban/FeatureFlux/internal/db/migrations"
	"github.com/BrendanKechtban/FeatureFlux/pkg/pg"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Apply Postgres schema migrations",
		GroupID: "ops",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := pg.Connect(ctx, a.cfg.PG)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := pg.OpenDB(pool)
			defer db.Close()

			if down {
				if err := pg.Rollback(ctx, db, migrations.FS, a.cfg.PG, a.log); err != nil {
					return err
				}
				cmd.Println("rolled back the latest migration")
				return nil
			}
			if err := pg.Migrate(ctx, db, migrations.FS, a.cfg.PG, a.log); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}
