package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
)

// Refresh re-reads one key from the store and publishes it.
func (e *Engine) Refresh(ctx context.Context, key string) error {
	unlock := e.locks.lock(key)
	defer unlock()
	return e.refreshLocked(ctx, key)
}

func (e *Engine) refreshLocked(ctx context.Context, key string) error {
	rec, err := e.store.LoadKey(ctx, key)
	switch {
	case errors.Is(err, feature.ErrNotFound):
		e.publish(func(s *Snapshot) { s.removeKey(key) })
		return nil
	case err != nil:
		return fmt.Errorf("refresh %q: %w", key, err)
	}

	e.publish(func(s *Snapshot) {
		s.putFlag(rec.Flag)
		if rec.KillSwitch != nil {
			s.switches[key] = *rec.KillSwitch
		} else {
			delete(s.switches, key)
		}
	})
	return nil
}

// Reload re-reads the full state. Entries published locally while the
// store was being read are kept when they are newer than what was read.
func (e *Engine) Reload(ctx context.Context) error {
	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	cur := e.snap.Load()
	next := snapshotFromState(cur.version+1, st)
	for key, f := range cur.flags {
		if loaded, ok := next.flags[key]; !ok || loaded.Version < f.Version {
			next.putFlag(f)
		}
	}
	for key, ks := range cur.switches {
		if loaded, ok := next.switches[key]; !ok || loaded.UpdatedAt.Before(ks.UpdatedAt) {
			next.switches[key] = ks
		}
	}
	e.snap.Store(next)
	return nil
}

// Run keeps the snapshot in step with other replicas until ctx ends.
// Changes from other origins refresh their key; lost notifications and
// the resync interval trigger a full reload.
func (e *Engine) Run(ctx context.Context) error {
	sub, err := e.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to change feed: %w", err)
	}
	defer sub.Close()

	var resync <-chan time.Time
	if e.resync > 0 {
		ticker := time.NewTicker(e.resync)
		defer ticker.Stop()
		resync = ticker.C
	}

	log := e.log.With(logger.Component("engine.sync"))
	var dropped uint64
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-sub.Receive():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("engine: change feed closed")
			}
			if n := sub.Dropped(); n != dropped {
				dropped = n
				e.reloadLogged(ctx, log, "change notifications dropped")
				continue
			}
			c := msg.Data
			if c.Origin == e.origin {
				continue
			}
			if err := e.Refresh(ctx, c.FlagKey); err != nil {
				log.WarnContext(ctx, "refresh failed", logger.FlagKey(c.FlagKey), logger.Error(err))
			}

		case <-resync:
			e.reloadLogged(ctx, log, "periodic resync")
		}
	}
}

func (e *Engine) reloadLogged(ctx context.Context, log *slog.Logger, reason string) {
	start := time.Now()
	if err := e.Reload(ctx); err != nil {
		log.WarnContext(ctx, "reload failed", slog.String("reason", reason), logger.Error(err))
		return
	}
	log.DebugContext(ctx, "state reloaded", slog.String("reason", reason),
		logger.SnapshotVersion(e.Version()),
		logger.Duration(time.Since(start)),
	)
}
