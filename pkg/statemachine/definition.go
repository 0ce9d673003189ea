package statemachine

import (
	"context"
	"fmt"
)

// Definition is an immutable transition table. It is safe for concurrent use.
type Definition struct {
	transitions map[string]map[string][]Transition
}

// Define builds a Definition from options.
func Define(opts ...Option) (*Definition, error) {
	d := &Definition{transitions: make(map[string]map[string][]Transition)}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(opts ...Option) *Definition {
	d, err := Define(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to define state machine: %v", err))
	}
	return d
}

func (d *Definition) add(t Transition) error {
	if t.From == nil || t.To == nil || t.Event == nil {
		return ErrInvalidTransition
	}
	byEvent, ok := d.transitions[t.From.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		d.transitions[t.From.Name()] = byEvent
	}
	byEvent[t.Event.Name()] = append(byEvent[t.Event.Name()], t)
	return nil
}

// find returns the first transition from state on event whose guards pass.
func (d *Definition) find(ctx context.Context, from State, event Event, data any) (*Transition, error) {
	candidates := d.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return nil, &ErrNoTransitionAvailable{StateName: from.Name(), EventName: event.Name()}
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i], from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &ErrTransitionRejected{StateName: from.Name(), EventName: event.Name()}
}

func guardsPass(ctx context.Context, t Transition, from State, event Event, data any) bool {
	for _, guard := range t.Guards {
		if !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}

// Apply takes the transition for event from state and runs its actions.
// It returns the target state, or an error if no transition applies or an
// action failed.
func (d *Definition) Apply(ctx context.Context, from State, event Event, data any) (State, error) {
	if from == nil || event == nil {
		return nil, ErrInvalidEvent
	}

	t, err := d.find(ctx, from, event, data)
	if err != nil {
		return nil, err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			return nil, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.To, nil
}

// CanApply reports whether Apply would find a transition.
func (d *Definition) CanApply(ctx context.Context, from State, event Event, data any) bool {
	if from == nil || event == nil {
		return false
	}
	_, err := d.find(ctx, from, event, data)
	return err == nil
}
