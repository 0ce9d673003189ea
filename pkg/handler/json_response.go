package handler

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error part of the envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type jsonResponse struct {
	status  int
	headers http.Header
	body    JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	for k, v := range j.headers {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta merges meta into the response metadata.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		if r.body.Meta == nil {
			r.body.Meta = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			r.body.Meta[k] = v
		}
	}
}

// WithHeader sets a response header.
func WithHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.headers == nil {
			r.headers = make(http.Header)
		}
		r.headers.Set(key, value)
	}
}

// JSON responds 200 with v as data.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errorResponse defers rendering to the configured ErrorHandler.
type errorResponse struct {
	err error
}

func (e errorResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	return renderError(w, classify(e.err, nil))
}

// Error returns a response that hands err to the ErrorHandler.
func Error(err error) Response {
	return errorResponse{err: err}
}

func renderError(w http.ResponseWriter, e HTTPError) error {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Code)
	}
	resp := &jsonResponse{
		status: e.Code,
		body: JSONResponse{Error: &ErrorDetail{
			Code:    e.Key,
			Message: message,
			Details: e.Details,
		}},
	}
	return resp.Render(w, nil)
}
