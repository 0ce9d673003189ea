// Package logger builds *slog.Logger instances for FeatureFlux services.
//
// New accepts functional options that select the output format, the minimum
// level and static attributes. A LogHandlerDecorator wraps the chosen handler
// and injects request-scoped values (request id, acting user) pulled from the
// context on every record, so call sites only need the *Context logging
// methods:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), actor.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "flag toggled", logger.FlagKey("dark-mode"))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
