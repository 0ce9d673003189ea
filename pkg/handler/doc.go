// Package handler provides typed HTTP handlers for JSON APIs.
//
// A HandlerFunc receives a Context and a request struct filled by binders,
// and returns a Response. Wrap turns it into an http.HandlerFunc:
//
//	type ToggleRequest struct {
//		Key     string `path:"key" json:"-"`
//		Enabled bool   `json:"enabled"`
//	}
//
//	func toggle(ctx handler.Context, req ToggleRequest) handler.Response {
//		f, err := svc.Toggle(ctx, req.Key, req.Enabled)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(f)
//	}
//
//	r.Post("/flags/{key}/toggle", handler.Wrap(toggle,
//		handler.WithBinders[handler.Context, ToggleRequest](binder.Path(chi.URLParam), binder.JSON()),
//		handler.WithErrorHandler[handler.Context, ToggleRequest](errHandler),
//	))
//
// # Responses
//
//	handler.JSON(v)                                  200 with {"data": v}
//	handler.JSON(v, handler.WithJSONStatus(201))     custom status
//	handler.JSON(v, handler.WithJSONMeta(meta))      adds {"meta": ...}
//	handler.Empty()                                  204
//	handler.Error(err)                               routed to the error handler
//
// # Errors
//
// Binding failures, rendering failures and Error responses reach the
// ErrorHandler. NewErrorHandler renders them as
//
//	{"error": {"code": "...", "message": "...", "details": ...}}
//
// using a Classifier to map domain errors onto HTTPError values. Unmapped
// errors become 500 responses and are logged at ERROR; client errors are
// logged at WARN.
package handler
