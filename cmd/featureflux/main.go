// Command featureflux serves the feature flag API and provides operator
// tools for migrations, seeding and audit export.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrendanKechtban/FeatureFlux/pkg/config"
)

// app carries what PersistentPreRunE prepared for a command.
type app struct {
	cfg Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "featureflux <command>",
		Short:         "Feature flag evaluation and governance service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(&a.cfg); err != nil {
				return err
			}
			if err := a.cfg.validate(); err != nil {
				return err
			}
			a.log = newLogger(a.cfg)
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
	)

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newAuditCmd(a))
	root.AddCommand(newBucketCmd())
	return root
}

func main() {
	root := newRootCmd()
	root.SetOut(os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
