package killswitch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/statemachine"
)

const (
	Inactive = statemachine.StringState("INACTIVE")
	Active   = statemachine.StringState("ACTIVE")

	Activate   = statemachine.StringEvent("activate")
	Deactivate = statemachine.StringEvent("deactivate")
)

// MaxReasonLength bounds the free-text reason.
const MaxReasonLength = 1000

var (
	ErrReasonRequired = errors.New("kill switch reason is required")
	ErrReasonTooLong  = errors.New("kill switch reason is too long")
	ErrActorRequired  = errors.New("kill switch actor is required")
)

// KillSwitch is the override record of one flag.
type KillSwitch struct {
	ID          int64     `json:"id"`
	FlagKey     string    `json:"flagKey"`
	Active      bool      `json:"active"`
	Reason      string    `json:"reason"`
	ActivatedBy string    `json:"activatedBy"`
	ActivatedAt time.Time `json:"activatedAt,omitzero"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// State returns the state machine state of k.
func (k KillSwitch) State() statemachine.State {
	if k.Active {
		return Active
	}
	return Inactive
}

// Implicit returns the INACTIVE record of a flag that never had a switch.
func Implicit(flagKey string) KillSwitch {
	return KillSwitch{FlagKey: flagKey}
}

// Command carries the input of a transition.
type Command struct {
	Reason string
	Actor  string
	At     time.Time

	// record is the switch being transitioned; actions write to it.
	record *KillSwitch
}

var machine = statemachine.MustDefine(
	statemachine.WithTransition(Inactive, Active, Activate,
		statemachine.WithGuard(hasReason),
		statemachine.WithAction(markActive),
	),
	statemachine.WithTransition(Active, Active, Activate,
		statemachine.WithGuard(hasReason),
		statemachine.WithAction(markActive),
	),
	statemachine.WithTransition(Active, Inactive, Deactivate,
		statemachine.WithAction(markInactive),
	),
	statemachine.WithTransition(Inactive, Inactive, Deactivate,
		statemachine.WithAction(touch),
	),
)

func hasReason(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	cmd, ok := data.(*Command)
	return ok && strings.TrimSpace(cmd.Reason) != ""
}

func markActive(_ context.Context, from, _ statemachine.State, _ statemachine.Event, data any) error {
	cmd := data.(*Command)
	k := cmd.record
	if from == Inactive {
		k.ActivatedAt = cmd.At
	}
	k.Active = true
	k.Reason = strings.TrimSpace(cmd.Reason)
	k.ActivatedBy = cmd.Actor
	stamp(k, cmd.At)
	return nil
}

func markInactive(_ context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	cmd := data.(*Command)
	k := cmd.record
	k.Active = false
	k.Reason = ""
	k.ActivatedBy = ""
	k.ActivatedAt = time.Time{}
	stamp(k, cmd.At)
	return nil
}

func touch(_ context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	cmd := data.(*Command)
	if cmd.record.ID != 0 {
		stamp(cmd.record, cmd.At)
	}
	return nil
}

func stamp(k *KillSwitch, at time.Time) {
	if k.CreatedAt.IsZero() {
		k.CreatedAt = at
	}
	k.UpdatedAt = at
}

// ValidateReason checks an activation reason after trimming.
func ValidateReason(reason string) error {
	switch reason = strings.TrimSpace(reason); {
	case reason == "":
		return ErrReasonRequired
	case len(reason) > MaxReasonLength:
		return ErrReasonTooLong
	}
	return nil
}

// Transition applies event to current and returns the resulting record.
// current is not modified.
func Transition(ctx context.Context, current KillSwitch, event statemachine.Event, cmd Command) (KillSwitch, error) {
	if strings.TrimSpace(cmd.Actor) == "" {
		return KillSwitch{}, ErrActorRequired
	}
	if event == Activate {
		if err := ValidateReason(cmd.Reason); err != nil {
			return KillSwitch{}, err
		}
	}

	next := current
	cmd.record = &next
	state, err := machine.Apply(ctx, current.State(), event, &cmd)
	if err != nil {
		if statemachine.IsTransitionRejectedError(err) {
			return KillSwitch{}, ErrReasonRequired
		}
		return KillSwitch{}, err
	}
	next.Active = state == Active
	return next, nil
}
