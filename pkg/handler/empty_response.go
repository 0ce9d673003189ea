package handler

import "net/http"

type emptyResponse struct {
	status  int
	headers http.Header
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	for k, v := range e.headers {
		w.Header()[k] = v
	}
	w.WriteHeader(e.status)
	return nil
}

// EmptyOption configures a bodiless response.
type EmptyOption func(*emptyResponse)

// WithEmptyHeader sets a header on a bodiless response.
func WithEmptyHeader(key, value string) EmptyOption {
	return func(e *emptyResponse) {
		if e.headers == nil {
			e.headers = make(http.Header)
		}
		e.headers.Set(key, value)
	}
}

// Empty responds 204 No Content.
func Empty(opts ...EmptyOption) Response {
	return EmptyWithStatus(http.StatusNoContent, opts...)
}

// EmptyWithStatus responds with status and no body.
func EmptyWithStatus(status int, opts ...EmptyOption) Response {
	e := emptyResponse{status: status}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
