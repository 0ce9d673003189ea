package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrendanKechtban/FeatureFlux/pkg/archive"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		Short:   "Audit ledger tools",
		GroupID: "ops",
	}
	cmd.AddCommand(newAuditExportCmd(a))
	cmd.AddCommand(newAuditVerifyCmd(a))
	return cmd
}

type auditFilter struct {
	flagKey string
	user    string
	since   time.Duration
}

func (f *auditFilter) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.flagKey, "flag", "", "only entries of this flag key")
	cmd.Flags().StringVar(&f.user, "user", "", "only entries performed by this actor")
	cmd.Flags().DurationVar(&f.since, "since", 24*time.Hour, "only entries newer than this (0 for all)")
}

func (f *auditFilter) criteria(now time.Time) audit.Criteria {
	c := audit.Criteria{
		EntityKey:   f.flagKey,
		PerformedBy: f.user,
		Limit:       audit.MaxLimit,
	}
	if f.since > 0 {
		c.Since = now.Add(-f.since)
	}
	return c
}

func newAuditExportCmd(a *app) *cobra.Command {
	var filter auditFilter

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching ledger entries to S3 as JSON Lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := archive.NewS3Client(ctx, a.cfg.Archive)
			if err != nil {
				return err
			}
			exp, err := archive.NewExporter(client, a.cfg.Archive)
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, a.cfg, a.log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			entries, err := b.store.QueryAudit(ctx, filter.criteria(time.Now()))
			if err != nil {
				return err
			}
			res, err := exp.Export(ctx, entries)
			if errors.Is(err, archive.ErrNothingToExport) {
				cmd.Println("no matching entries")
				return nil
			}
			if err != nil {
				return err
			}
			if len(entries) == audit.MaxLimit {
				cmd.PrintErrf("warning: export capped at %d entries; narrow --since or --flag\n", audit.MaxLimit)
			}
			cmd.Printf("exported %d entries (%d bytes) to %s\n", res.Entries, res.Bytes, res.Location())
			return nil
		},
	}

	filter.register(cmd)
	return cmd
}

func newAuditVerifyCmd(a *app) *cobra.Command {
	var filter auditFilter

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check ledger entries against their checksums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBackend(ctx, a.cfg, a.log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			entries, err := b.store.QueryAudit(ctx, filter.criteria(time.Now()))
			if err != nil {
				return err
			}

			var bad int
			for _, e := range entries {
				if err := e.Verify(); err != nil {
					bad++
					cmd.PrintErrf("%s %s %s: %v\n", e.Timestamp.Format(time.RFC3339), e.Action, e.EntityKey, err)
				}
			}
			cmd.Printf("%d entries checked, %d mismatched\n", len(entries), bad)
			if bad > 0 {
				return fmt.Errorf("%d audit entries failed verification", bad)
			}
			return nil
		},
	}

	filter.register(cmd)
	return cmd
}
