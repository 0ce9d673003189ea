package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/statemachine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

// KillSwitch returns the switch of a live flag; flags that never had one
// report an implicit INACTIVE record.
func (e *Engine) KillSwitch(flagKey string) (killswitch.KillSwitch, error) {
	return e.Snapshot().KillSwitch(flagKey)
}

// ActiveKillSwitches lists the switches currently forcing flags off.
func (e *Engine) ActiveKillSwitches() []killswitch.KillSwitch {
	return e.Snapshot().ActiveKillSwitches()
}

// ActivateKillSwitch forces flagKey off for every user. Activating an
// active switch records the new reason and actor.
func (e *Engine) ActivateKillSwitch(ctx context.Context, act actor.Actor, flagKey, reason string) (killswitch.KillSwitch, error) {
	return e.transitionKillSwitch(ctx, act, flagKey, killswitch.Activate, reason)
}

// DeactivateKillSwitch restores the flag's own configuration. Deactivating
// an inactive switch is recorded but changes nothing.
func (e *Engine) DeactivateKillSwitch(ctx context.Context, act actor.Actor, flagKey string) (killswitch.KillSwitch, error) {
	return e.transitionKillSwitch(ctx, act, flagKey, killswitch.Deactivate, "")
}

func (e *Engine) transitionKillSwitch(ctx context.Context, act actor.Actor, key string, event statemachine.Event, reason string) (killswitch.KillSwitch, error) {
	var out killswitch.KillSwitch
	res, err := e.write(ctx, act, key, func(s *Snapshot) (store.Mutation, error) {
		cur, err := s.KillSwitch(key)
		if err != nil {
			return store.Mutation{}, err
		}

		now := e.timestamp()
		next, err := killswitch.Transition(ctx, cur, event, killswitch.Command{
			Reason: reason,
			Actor:  act.ID,
			At:     now,
		})
		if err != nil {
			if errors.Is(err, killswitch.ErrReasonRequired) || errors.Is(err, killswitch.ErrReasonTooLong) {
				return store.Mutation{}, errors.Join(feature.ErrInvalidArgument, err)
			}
			return store.Mutation{}, err
		}

		action := audit.ActionKillSwitchDeactivate
		description := fmt.Sprintf("Kill switch deactivated for flag '%s'", key)
		if event == killswitch.Activate {
			action = audit.ActionKillSwitchActivate
			description = fmt.Sprintf("Kill switch activated for flag '%s'. Reason: %s", key, next.Reason)
		}

		var oldValue any
		if cur.ID != 0 {
			oldValue = cur
		}
		entry, err := e.entry(act, action, key, description, now, oldValue, next)
		if err != nil {
			return store.Mutation{}, err
		}

		m := store.Mutation{Entry: entry}
		// An implicit record is only persisted once it is first activated.
		if event == killswitch.Activate || cur.ID != 0 {
			m.KillSwitch = &next
		}
		out = next
		return m, nil
	})
	if err != nil {
		return killswitch.KillSwitch{}, err
	}
	if res.KillSwitch != nil {
		out = *res.KillSwitch
	}
	return out, nil
}
