package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		file    string
		by      string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Create the flags of a YAML file, skipping existing keys",
		GroupID: "ops",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(by) == "" {
				return errors.New("--actor must not be empty")
			}
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := openBackend(ctx, a.cfg, a.log, migrate)
			if err != nil {
				return err
			}
			defer b.Close()

			eng, err := newEngine(ctx, b, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer eng.Close()

			rep, err := seed.Apply(ctx, eng, actor.System(by), f, a.log)
			printSeedReport(cmd, rep)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "flags.yaml", "seed file")
	cmd.Flags().StringVar(&by, "actor", seedActor, "actor recorded in the audit log")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending database migrations first")
	return cmd
}

func printSeedReport(cmd *cobra.Command, rep seed.Report) {
	for _, key := range rep.Created {
		cmd.Printf("created  %s\n", key)
	}
	for _, key := range rep.Skipped {
		cmd.Printf("skipped  %s (exists)\n", key)
	}
	cmd.Printf("%d created, %d skipped\n", len(rep.Created), len(rep.Skipped))
}
