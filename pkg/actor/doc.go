// Package actor carries the identity of whoever performs a request.
//
// Authentication happens upstream. The gateway forwards the authenticated
// identity in the X-Actor-ID and X-Actor-Role headers; Middleware turns them,
// together with the request id and client IP, into an Actor stored in the
// request context. Mutating engine operations take the Actor as an explicit
// argument and record it in the audit ledger.
//
// Roles map to a fixed permission set:
//
//	ADMIN   every permission
//	VIEWER  flags:read
//
// Usage:
//
//	r.Use(requestid.Middleware, clientip.Middleware, actor.Middleware)
//
//	act, err := actor.Require(ctx, actor.PermKillSwitch)
//	if err != nil {
//		return err // ErrUnauthenticated or ErrForbidden
//	}
package actor
