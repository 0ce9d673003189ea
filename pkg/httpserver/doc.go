// Package httpserver runs the REST API with graceful shutdown and serves
// the liveness and readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	r.Get("/healthz", httpserver.Liveness())
//	r.Get("/readyz", httpserver.Readiness(log, map[string]httpserver.CheckFunc{
//		"store": st.Ping,
//	}))
//	err := srv.Run(ctx, r) // returns after ctx is cancelled and requests drain
package httpserver
