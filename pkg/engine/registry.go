package engine

import (
	"context"
	"fmt"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

// ListFlags returns flags ordered by key.
func (e *Engine) ListFlags(includeArchived bool) []feature.Flag {
	return e.Snapshot().Flags(includeArchived)
}

// GetFlag returns the live flag with the given key.
func (e *Engine) GetFlag(key string) (feature.Flag, error) {
	return e.Snapshot().Flag(key)
}

// GetFlagByID returns the live flag with the given id.
func (e *Engine) GetFlagByID(id int64) (feature.Flag, error) {
	return e.Snapshot().FlagByID(id)
}

// CreateFlag registers a new flag at version 0. Keys are unique across live
// and archived flags.
func (e *Engine) CreateFlag(ctx context.Context, act actor.Actor, f feature.Flag) (feature.Flag, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return feature.Flag{}, err
	}

	res, err := e.write(ctx, act, f.Key, func(s *Snapshot) (store.Mutation, error) {
		if _, ok := s.flags[f.Key]; ok {
			return store.Mutation{}, feature.ErrAlreadyExists
		}

		now := e.timestamp()
		f.ID, f.Version, f.Archived = 0, 0, false
		f.CreatedAt, f.UpdatedAt = now, now

		entry, err := e.entry(act, audit.ActionCreate, f.Key,
			fmt.Sprintf("Created feature flag '%s'", f.Key), now, nil, f)
		if err != nil {
			return store.Mutation{}, err
		}
		return store.Mutation{Flag: &f, Create: true, Entry: entry}, nil
	})
	if err != nil {
		return feature.Flag{}, err
	}
	return res.Flag.Clone(), nil
}

// UpdateFlag applies patch if the flag is still at expectedVersion.
// A stale expectedVersion fails with feature.ErrVersionMismatch; callers
// re-read and retry.
func (e *Engine) UpdateFlag(ctx context.Context, act actor.Actor, key string, patch feature.Patch, expectedVersion int64) (feature.Flag, error) {
	return e.changeFlag(ctx, act, key, audit.ActionUpdate, &expectedVersion,
		func(cur feature.Flag) (feature.Flag, string, error) {
			next, err := patch.Apply(cur)
			if err != nil {
				return feature.Flag{}, "", err
			}
			if err := next.Validate(); err != nil {
				return feature.Flag{}, "", err
			}
			return next, fmt.Sprintf("Updated feature flag '%s'", key), nil
		})
}

// UpdateFlagByID is UpdateFlag addressed by the store-assigned id.
func (e *Engine) UpdateFlagByID(ctx context.Context, act actor.Actor, id int64, patch feature.Patch, expectedVersion int64) (feature.Flag, error) {
	f, err := e.GetFlagByID(id)
	if err != nil {
		return feature.Flag{}, err
	}
	return e.UpdateFlag(ctx, act, f.Key, patch, expectedVersion)
}

// ToggleFlag sets the master switch of the latest version.
func (e *Engine) ToggleFlag(ctx context.Context, act actor.Actor, key string, enabled bool) (feature.Flag, error) {
	return e.changeFlag(ctx, act, key, audit.ActionToggle, nil,
		func(cur feature.Flag) (feature.Flag, string, error) {
			next := cur.Clone()
			next.Enabled = enabled
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			return next, fmt.Sprintf("Toggled feature flag '%s' to %s", key, state), nil
		})
}

// ArchiveFlag soft-deletes a flag. The record and its history are kept.
func (e *Engine) ArchiveFlag(ctx context.Context, act actor.Actor, key string) (feature.Flag, error) {
	return e.changeFlag(ctx, act, key, audit.ActionDelete, nil,
		func(cur feature.Flag) (feature.Flag, string, error) {
			next := cur.Clone()
			next.Archived = true
			return next, fmt.Sprintf("Deleted feature flag '%s'", key), nil
		})
}

// changeFunc derives the next version of a flag and the audit description.
type changeFunc func(cur feature.Flag) (feature.Flag, string, error)

// changeFlag updates a live flag. A nil expectedVersion applies the change
// to whatever version is current.
func (e *Engine) changeFlag(ctx context.Context, act actor.Actor, key string, action audit.Action, expectedVersion *int64, change changeFunc) (feature.Flag, error) {
	res, err := e.write(ctx, act, key, func(s *Snapshot) (store.Mutation, error) {
		cur, err := s.Flag(key)
		if err != nil {
			return store.Mutation{}, err
		}
		if expectedVersion != nil && *expectedVersion != cur.Version {
			return store.Mutation{}, feature.ErrVersionMismatch
		}

		next, description, err := change(cur)
		if err != nil {
			return store.Mutation{}, err
		}
		now := e.timestamp()
		next.Version = cur.Version + 1
		next.UpdatedAt = now

		entry, err := e.entry(act, action, key, description, now, cur, next)
		if err != nil {
			return store.Mutation{}, err
		}
		return store.Mutation{Flag: &next, ExpectedVersion: cur.Version, Entry: entry}, nil
	})
	if err != nil {
		return feature.Flag{}, err
	}
	return res.Flag.Clone(), nil
}
