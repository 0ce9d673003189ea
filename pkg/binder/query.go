package binder

import "net/http"

// Query returns a binder for fields tagged `query:"name"`.
// Untagged fields bind to their lowercased name; `query:"-"` skips a field.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
