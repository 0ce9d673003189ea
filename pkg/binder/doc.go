// Package binder fills request structs from JSON bodies, query strings and
// path parameters.
//
// Each binder is a func(*http.Request, any) error that reads only its own
// source, so several can be chained on one struct:
//
//	type UpdateRequest struct {
//		ID      int64  `path:"ref" json:"-"`
//		Name    string `json:"name"`
//		Version int64  `json:"version"`
//	}
//
//	handler.Wrap(update, handler.WithBinders[handler.Context, UpdateRequest](
//		binder.Path(chi.URLParam),
//		binder.JSON(),
//	))
//
// JSON bodies are decoded strictly: unknown fields, trailing data and bodies
// over DefaultMaxJSONSize are rejected. Query and path values support
// strings, integers, floats, booleans, pointers to these and slices (repeated
// or comma-separated values).
//
// All failures wrap one of the package errors so the HTTP layer can map them
// to 400 or 415 responses.
package binder
