package statemachine

import "context"

type State interface {
	Name() string
}

type Event interface {
	Name() string
}

// Action runs while a transition is applied. Returning an error aborts it.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard decides whether a transition may be taken.
type Guard func(ctx context.Context, from State, event Event, data any) bool

type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type StringState string

func (s StringState) Name() string { return string(s) }

type StringEvent string

func (e StringEvent) Name() string { return string(e) }
