package main

import (
	"github.com/spf13/cobra"

	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
)

func newBucketCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "bucket <flagKey> <userId>",
		Short:   "Print the rollout bucket of a user for a flag",
		GroupID: "ops",
		Args:    cobra.ExactArgs(2),
		// Pure computation: no configuration needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(feature.Bucket(args[0], args[1]))
			return nil
		},
	}
}
