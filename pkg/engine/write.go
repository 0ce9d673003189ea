package engine

import (
	"context"
	"errors"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

// buildFunc derives a mutation from the latest snapshot while the key lock is held.
type buildFunc func(s *Snapshot) (store.Mutation, error)

// write runs the commit sequence of one mutation on key:
// lock, build, commit with audit entry, publish, unlock, announce.
func (e *Engine) write(ctx context.Context, act actor.Actor, key string, build buildFunc) (store.Result, error) {
	if err := act.Validate(); err != nil {
		return store.Result{}, errors.Join(feature.ErrInvalidArgument, err)
	}

	unlock := e.locks.lock(key)
	m, err := build(e.Snapshot())
	if err != nil {
		unlock()
		return store.Result{}, err
	}
	res, version, err := e.commit(ctx, key, m)
	unlock()
	if err != nil {
		return store.Result{}, err
	}

	e.announce(ctx, key, res.Entry.Action, version)
	return res, nil
}

// timestamp returns the current time at the precision the store keeps.
func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// entry builds the audit record of a mutation performed by act.
func (e *Engine) entry(act actor.Actor, action audit.Action, key, description string, at time.Time, oldValue, newValue any) (audit.Entry, error) {
	entry, err := audit.New(action, key, act.ID, description, at,
		audit.WithValues(oldValue, newValue),
		audit.WithIPAddress(act.IP),
		audit.WithRequestID(act.RequestID),
	)
	if err != nil {
		return audit.Entry{}, errors.Join(ErrFatal, err)
	}
	return entry, nil
}
