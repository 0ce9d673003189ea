package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BrendanKechtban/FeatureFlux/modules/flags"
	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/clientip"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/httpserver"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/requestid"
	"github.com/BrendanKechtban/FeatureFlux/pkg/seed"
)

const seedActor = "system:seed"

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the REST API and follow the change feed",
		GroupID: "server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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

			if a.cfg.SeedFile != "" {
				f, err := seed.LoadFile(a.cfg.SeedFile)
				if err != nil {
					return err
				}
				rep, err := seed.Apply(ctx, eng, actor.System(seedActor), f, a.log)
				if err != nil {
					return err
				}
				a.log.InfoContext(ctx, "seed file applied",
					logger.Component("seed"),
					slog.Int("created", len(rep.Created)),
					slog.Int("skipped", len(rep.Skipped)),
				)
			}

			srv := httpserver.NewFromConfig(a.cfg.HTTP, httpserver.WithLogger(a.log))
			router := newRouter(eng, b, a)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx, router) })
			g.Go(func() error { return eng.Run(gctx) })
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending database migrations before serving")
	return cmd
}

func newRouter(eng *engine.Engine, b *backend, a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware, actor.Middleware)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(a.log, b.checks))

	errs := flags.NewErrorHandler(a.log)
	r.Mount("/api", flags.Router(flags.RouterOptions{
		Flags:      flags.NewFlagService(eng, errs),
		Evaluation: flags.NewEvaluationService(eng, errs),
		Audit:      flags.NewAuditService(eng, errs),
		KillSwitch: flags.NewKillSwitchService(eng, errs),
		Version:    eng,
	}))
	return r
}
