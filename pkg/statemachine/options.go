package statemachine

// Option configures a Definition.
type Option func(*Definition) error

// TransitionOption configures a single transition.
type TransitionOption func(*Transition)

// WithTransition registers a transition from one state to another on event.
// Transitions registered for the same state and event are tried in order.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(d *Definition) error {
		t := Transition{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		return d.add(t)
	}
}

func WithGuard(guard Guard) TransitionOption {
	return func(t *Transition) {
		if guard != nil {
			t.Guards = append(t.Guards, guard)
		}
	}
}

func WithAction(action Action) TransitionOption {
	return func(t *Transition) {
		if action != nil {
			t.Actions = append(t.Actions, action)
		}
	}
}
