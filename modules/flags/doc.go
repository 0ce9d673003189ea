// Package flags exposes the flag registry, evaluation, audit ledger and
// kill switches over HTTP.
//
// Each area is a service with its own chi sub-router; Router mounts the
// services that are provided:
//
//	eng, _ := engine.New(ctx, st)
//	errs := flags.NewErrorHandler(log)
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware, clientip.Middleware, actor.Middleware)
//	r.Mount("/api", flags.Router(flags.RouterOptions{
//		Flags:      flags.NewFlagService(eng, errs),
//		Evaluation: flags.NewEvaluationService(eng, errs),
//		Audit:      flags.NewAuditService(eng, errs),
//		KillSwitch: flags.NewKillSwitchService(eng, errs),
//		Version:    eng,
//	}))
//
// Every response carries the X-Snapshot-Version header. Successful JSON
// responses repeat it as meta.snapshotVersion.
package flags
