package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
)

var errMissing = errors.New("thing is missing")

type createRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSON(map[string]string{"key": "dark-mode"},
		handler.WithJSONStatus(http.StatusCreated),
		handler.WithJSONMeta(map[string]any{"snapshotVersion": 3}),
		handler.WithHeader("X-Snapshot-Version", "3"),
	)
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("X-Snapshot-Version"))
	assert.Equal(t, handler.JSONResponse{
		Data: map[string]any{"key": "dark-mode"},
		Meta: map[string]any{"snapshotVersion": float64(3)},
	}, decode(t, rec))
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, handler.Empty().Render(rec, httptest.NewRequest(http.MethodDelete, "/", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec = httptest.NewRecorder()
	require.NoError(t, handler.EmptyWithStatus(http.StatusAccepted).Render(rec, nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	rec.Header().Set("X-Version", "1")
	require.NoError(t, handler.Empty(handler.WithEmptyHeader("X-Version", "2")).Render(rec, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Version"))
	assert.Zero(t, rec.Body.Len())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	errHandler := handler.NewErrorHandler(
		logger.New(logger.WithOutput(&logs), logger.WithFormat(logger.FormatJSON)),
		func(err error) (handler.HTTPError, bool) {
			if errors.Is(err, errMissing) {
				return handler.ErrNotFound.WithMessage(err.Error()), true
			}
			return handler.HTTPError{}, false
		},
	)

	create := func(ctx handler.Context, req createRequest) handler.Response {
		switch req.Name {
		case "missing":
			return handler.Error(errMissing)
		case "boom":
			return handler.Error(errors.New("database exploded"))
		case "invalid":
			return handler.Error(handler.ErrBadRequest.WithDetails([]string{"name"}))
		case "nil":
			return nil
		}
		return handler.JSON(req, handler.WithJSONStatus(http.StatusCreated))
	}
	h := handler.Wrap(create,
		handler.WithBinders[handler.Context, createRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, createRequest](errHandler),
	)

	serve := func(contentType, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name    string
		ctype   string
		body    string
		status  int
		code    string
		message string
	}{
		{"success", "application/json", `{"name":"ok"}`, http.StatusCreated, "", ""},
		{"classified domain error", "application/json", `{"name":"missing"}`, http.StatusNotFound, "not_found", "thing is missing"},
		{"unknown error hides details", "application/json", `{"name":"boom"}`, http.StatusInternalServerError, "internal_server_error", "Internal Server Error"},
		{"http error passes through", "application/json", `{"name":"invalid"}`, http.StatusBadRequest, "bad_request", "Bad Request"},
		{"nil response", "application/json", `{"name":"nil"}`, http.StatusInternalServerError, "internal_server_error", "Internal Server Error"},
		{"malformed body", "application/json", `{"name":`, http.StatusBadRequest, "bad_request", ""},
		{"wrong media type", "text/plain", `name=ok`, http.StatusUnsupportedMediaType, "unsupported_media_type", ""},
	}
	for _, tt := range tests {
		rec := serve(tt.ctype, tt.body)
		assert.Equal(t, tt.status, rec.Code, tt.name)

		body := decode(t, rec)
		if tt.code == "" {
			assert.Nil(t, body.Error, tt.name)
			assert.Equal(t, map[string]any{"name": "ok"}, body.Data)
			continue
		}
		require.NotNil(t, body.Error, tt.name)
		assert.Equal(t, tt.code, body.Error.Code, tt.name)
		if tt.message != "" {
			assert.Equal(t, tt.message, body.Error.Message, tt.name)
		}
	}

	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), "database exploded")
}

func TestDecorators(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) handler.Decorator[handler.Context, struct{}] {
		return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.Empty()
	}, handler.WithDecorators(trace("outer"), trace("inner")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestHTTPErrorWrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	err := handler.ErrConflict.WithMessage("version mismatch").Wrap(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "version mismatch", err.Error())
	assert.Equal(t, "conflict", handler.ErrConflict.Error())
}
