package engine

import (
	"log/slog"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/broadcast"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithChangeFeed publishes committed changes on feed and, in Run, refreshes
// keys changed by other replicas. The engine does not close feed.
// Without it, changes are only announced in process.
func WithChangeFeed(feed broadcast.Broadcaster[Change]) Option {
	return func(e *Engine) {
		if feed != nil {
			e.feed = feed
			e.ownsFeed = false
		}
	}
}

// WithResyncInterval makes Run reload the full state every d.
// Zero disables periodic reloads.
func WithResyncInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.resync = d
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithOrigin sets the instance id stamped on published changes.
// It defaults to a random UUID.
func WithOrigin(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.origin = id
		}
	}
}
