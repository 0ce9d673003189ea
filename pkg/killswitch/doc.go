// Package killswitch models the per-flag emergency override.
//
// A kill switch is INACTIVE until first activated. Activation requires a
// reason and is idempotent: activating an active switch re-affirms it with the
// new reason and actor. Deactivation is idempotent too. The transitions are a
// statemachine.Definition; records are persisted by the store package and the
// flag itself is never touched.
package killswitch
