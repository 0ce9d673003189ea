// Package statemachine describes finite state machines as immutable
// transition tables.
//
// A Definition maps (state, event) pairs to transitions. Each transition may
// carry Guards, which must all pass, and Actions, which run in order before
// the new state is returned. Definitions hold no current state, so one table
// can drive any number of records whose state is persisted elsewhere:
//
//	def := statemachine.MustDefine(
//		statemachine.WithTransition(Inactive, Active, Activate,
//			statemachine.WithGuard(hasReason),
//			statemachine.WithAction(recordActivation),
//		),
//	)
//	next, err := def.Apply(ctx, current, Activate, cmd)
package statemachine
