package actor

import (
	"context"
	"log/slog"
)

type actorCtxKey struct{}

// WithContext stores a in ctx.
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// FromContext returns the actor stored in ctx.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	return a, ok
}

// Require returns the context actor if it holds permission p.
func Require(ctx context.Context, p Permission) (Actor, error) {
	a, ok := FromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	if err := a.Can(p); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// LoggerExtractor adds the actor id to log records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if a, ok := FromContext(ctx); ok && a.ID != "" {
			return slog.String("actor", a.ID), true
		}
		return slog.Attr{}, false
	}
}
