// Package clientip resolves the client address of a request behind the API
// gateway and stores it in the request context, where the audit ledger
// picks it up as the entry's ipAddress.
//
// Forwarding headers are only meaningful when a trusted proxy sets them, so
// the headers consulted are configurable:
//
//	r.Use(clientip.Middleware)                                  // X-Forwarded-For, X-Real-IP
//	r.Use(clientip.New(clientip.WithHeaders("X-Real-IP")).Middleware)
package clientip
