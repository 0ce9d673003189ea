package flags_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/modules/flags"
	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/clientip"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/requestid"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
	"github.com/BrendanKechtban/FeatureFlux/pkg/validator"
)

type identity struct {
	id   string
	role string
}

var (
	admin     = identity{id: "ops-admin", role: "ADMIN"}
	viewer    = identity{id: "dev", role: "VIEWER"}
	anonymous = identity{}
)

type envelope struct {
	Data  json.RawMessage      `json:"data"`
	Meta  map[string]any       `json:"meta"`
	Error *handler.ErrorDetail `json:"error"`
}

type api struct {
	t   *testing.T
	h   http.Handler
	eng *engine.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()

	eng, err := engine.New(t.Context(), store.NewMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	errs := flags.NewErrorHandler(logger.Discard())
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware, actor.Middleware)
	r.Mount("/api", flags.Router(flags.RouterOptions{
		Flags:      flags.NewFlagService(eng, errs),
		Evaluation: flags.NewEvaluationService(eng, errs),
		Audit:      flags.NewAuditService(eng, errs),
		KillSwitch: flags.NewKillSwitchService(eng, errs),
		Version:    eng,
	}))

	return &api{t: t, h: r, eng: eng}
}

func (a *api) do(who identity, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set(requestid.Header, "req-test")
	if who.id != "" {
		req.Header.Set(actor.HeaderID, who.id)
		req.Header.Set(actor.HeaderRole, who.role)
	}

	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (a *api) createFlag(body map[string]any) feature.Flag {
	a.t.Helper()
	rec, env := a.do(admin, http.MethodPost, "/api/flags", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[feature.Flag](a.t, env)
}

func darkMode() map[string]any {
	return map[string]any{
		"key":               "dark-mode",
		"name":              "Dark mode",
		"enabled":           true,
		"rolloutPercentage": 100,
		"targetUserIds":     []string{"alice"},
		"excludedUserIds":   []string{"bob"},
	}
}

func TestFlagLifecycle(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	rec, env := a.do(admin, http.MethodPost, "/api/flags", darkMode())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[feature.Flag](t, env)
	assert.Equal(t, "dark-mode", created.Key)
	assert.Equal(t, int64(0), created.Version)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "1", rec.Header().Get(flags.HeaderSnapshotVersion))
	assert.Equal(t, float64(1), env.Meta["snapshotVersion"])

	t.Run("get by key and id", func(t *testing.T) {
		rec, env := a.do(viewer, http.MethodGet, "/api/flags/key/dark-mode", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decodeData[feature.Flag](t, env).ID)

		rec, env = a.do(viewer, http.MethodGet, fmt.Sprintf("/api/flags/%d", created.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dark-mode", decodeData[feature.Flag](t, env).Key)
	})

	t.Run("update with current version", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPut, fmt.Sprintf("/api/flags/%d", created.ID),
			map[string]any{"version": 0, "rolloutPercentage": 25, "description": "new theme"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated := decodeData[feature.Flag](t, env)
		assert.Equal(t, int64(1), updated.Version)
		assert.Equal(t, 25, updated.RolloutPercentage)
		assert.Equal(t, "new theme", updated.Description)
		assert.Equal(t, []string{"alice"}, updated.TargetUserIDs)
		assert.Equal(t, "2", rec.Header().Get(flags.HeaderSnapshotVersion))
	})

	t.Run("stale update conflicts", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPut, fmt.Sprintf("/api/flags/%d", created.ID),
			map[string]any{"version": 0, "rolloutPercentage": 75})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "conflict", env.Error.Code)
		assert.Equal(t, feature.ErrVersionMismatch.Error(), env.Error.Message)
		assert.Equal(t, "2", rec.Header().Get(flags.HeaderSnapshotVersion))
	})

	t.Run("toggle", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPost, "/api/flags/dark-mode/toggle", map[string]any{"enabled": false})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		toggled := decodeData[feature.Flag](t, env)
		assert.False(t, toggled.Enabled)
		assert.Equal(t, int64(2), toggled.Version)
	})

	t.Run("archive hides the flag", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodDelete, "/api/flags/dark-mode", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "4", rec.Header().Get(flags.HeaderSnapshotVersion))

		rec, env := a.do(viewer, http.MethodGet, "/api/flags/key/dark-mode", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "not_found", env.Error.Code)

		rec, _ = a.do(admin, http.MethodDelete, "/api/flags/dark-mode", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, env = a.do(viewer, http.MethodGet, "/api/flags", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeData[[]feature.Flag](t, env))

		rec, env = a.do(admin, http.MethodGet, "/api/flags?includeArchived=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		all := decodeData[[]feature.Flag](t, env)
		require.Len(t, all, 1)
		assert.True(t, all[0].Archived)
	})

	t.Run("recreating an archived key conflicts", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPost, "/api/flags", darkMode())
		assert.Equal(t, http.StatusConflict, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, feature.ErrAlreadyExists.Error(), env.Error.Message)
	})
}

func TestAuthorization(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createFlag(darkMode())

	tests := []struct {
		name   string
		who    identity
		method string
		path   string
		body   any
		status int
	}{
		{"anonymous cannot create", anonymous, http.MethodPost, "/api/flags", darkMode(), http.StatusUnauthorized},
		{"viewer cannot create", viewer, http.MethodPost, "/api/flags", darkMode(), http.StatusForbidden},
		{"viewer cannot toggle", viewer, http.MethodPost, "/api/flags/dark-mode/toggle", map[string]any{"enabled": false}, http.StatusForbidden},
		{"viewer lists flags", viewer, http.MethodGet, "/api/flags", nil, http.StatusOK},
		{"viewer cannot list archived", viewer, http.MethodGet, "/api/flags?includeArchived=true", nil, http.StatusForbidden},
		{"anonymous cannot read flags", anonymous, http.MethodGet, "/api/flags", nil, http.StatusUnauthorized},
		{"anonymous evaluates", anonymous, http.MethodGet, "/api/evaluate/dark-mode/carol", nil, http.StatusOK},
		{"viewer cannot read audit", viewer, http.MethodGet, "/api/audit", nil, http.StatusForbidden},
		{"viewer cannot activate kill switch", viewer, http.MethodPost, "/api/admin/killswitch/dark-mode/activate", map[string]any{"reason": "x"}, http.StatusForbidden},
		{"unknown role is forbidden", identity{id: "eve", role: "ROOT"}, http.MethodGet, "/api/flags", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := a.do(tt.who, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status >= http.StatusBadRequest {
				require.NotNil(t, env.Error)
			}
		})
	}

	// Rejected writes leave no trace.
	assert.Equal(t, uint64(1), a.eng.Version())
}

func TestRequestErrors(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	created := a.createFlag(darkMode())

	t.Run("field errors carry details", func(t *testing.T) {
		body := darkMode()
		body["key"] = "Not A Slug"
		body["rolloutPercentage"] = 101

		rec, env := a.do(admin, http.MethodPost, "/api/flags", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "bad_request", env.Error.Code)

		raw, err := json.Marshal(env.Error.Details)
		require.NoError(t, err)
		var details validator.ValidationErrors
		require.NoError(t, json.Unmarshal(raw, &details))
		assert.True(t, details.Has("key"))
		assert.True(t, details.Has("rolloutPercentage"))
	})

	t.Run("key is immutable", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPut, fmt.Sprintf("/api/flags/%d", created.ID),
			map[string]any{"version": 0, "key": "light-mode"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
	})

	t.Run("update requires version", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodPut, fmt.Sprintf("/api/flags/%d", created.ID),
			map[string]any{"rolloutPercentage": 10})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("toggle requires enabled", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodPost, "/api/flags/dark-mode/toggle", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown json field", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodPost, "/api/flags/dark-mode/toggle", `{"enabled":true,"force":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec, _ := a.do(viewer, http.MethodGet, "/api/flags/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec, _ := a.do(viewer, http.MethodGet, "/api/flags/999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/evaluate", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		a.h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "1", rec.Header().Get(flags.HeaderSnapshotVersion))
	})

	assert.Equal(t, uint64(1), a.eng.Version())
}

func TestEvaluateEndpoints(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createFlag(darkMode())

	t.Run("post", func(t *testing.T) {
		rec, env := a.do(anonymous, http.MethodPost, "/api/evaluate",
			map[string]any{"flagKey": "dark-mode", "userId": "carol"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		d := decodeData[feature.Decision](t, env)
		assert.True(t, d.Enabled)
		assert.Equal(t, feature.Bucket("dark-mode", "carol"), d.Bucket)
		assert.Equal(t, feature.ReasonRollout, d.Reason)
		assert.Equal(t, float64(1), env.Meta["snapshotVersion"])
	})

	t.Run("excluded beats targeted", func(t *testing.T) {
		rec, env := a.do(anonymous, http.MethodGet, "/api/evaluate/dark-mode/bob", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		d := decodeData[feature.Decision](t, env)
		assert.False(t, d.Enabled)
		assert.Equal(t, feature.ReasonExcluded, d.Reason)
	})

	t.Run("bulk", func(t *testing.T) {
		rec, env := a.do(anonymous, http.MethodPost, "/api/evaluate/bulk",
			map[string]string{"dark-mode": "alice", "missing": "alice"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		res := decodeData[engine.BulkResult](t, env)
		require.Contains(t, res.Results, "dark-mode")
		assert.True(t, res.Results["dark-mode"].Enabled)
		assert.Contains(t, res.Errors, "missing")
	})

	t.Run("empty bulk", func(t *testing.T) {
		rec, _ := a.do(anonymous, http.MethodPost, "/api/evaluate/bulk", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		rec, _ := a.do(anonymous, http.MethodGet, "/api/evaluate/missing/alice", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		rec, _ := a.do(anonymous, http.MethodPost, "/api/evaluate", map[string]any{"flagKey": "dark-mode"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing flag key", func(t *testing.T) {
		rec, _ := a.do(anonymous, http.MethodPost, "/api/evaluate", map[string]any{"userId": "alice"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestKillSwitchEndpoints(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createFlag(darkMode())

	t.Run("implicit record", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodGet, "/api/admin/killswitch/dark-mode", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		ks := decodeData[killswitch.KillSwitch](t, env)
		assert.False(t, ks.Active)
		assert.Equal(t, "dark-mode", ks.FlagKey)
	})

	t.Run("reason required", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodPost, "/api/admin/killswitch/dark-mode/activate", map[string]any{"reason": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		rec, _ := a.do(admin, http.MethodPost, "/api/admin/killswitch/missing/activate", map[string]any{"reason": "incident"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("activate overrides targeting", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPost, "/api/admin/killswitch/dark-mode/activate",
			map[string]any{"reason": "incident 42"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		ks := decodeData[killswitch.KillSwitch](t, env)
		assert.True(t, ks.Active)
		assert.Equal(t, "ops-admin", ks.ActivatedBy)
		assert.Equal(t, "incident 42", ks.Reason)

		rec, env = a.do(anonymous, http.MethodGet, "/api/evaluate/dark-mode/alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		d := decodeData[feature.Decision](t, env)
		assert.False(t, d.Enabled)
		assert.Equal(t, feature.ReasonKillSwitch, d.Reason)

		rec, env = a.do(admin, http.MethodGet, "/api/admin/killswitch/active", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		active := decodeData[[]killswitch.KillSwitch](t, env)
		require.Len(t, active, 1)
		assert.Equal(t, "dark-mode", active[0].FlagKey)
	})

	t.Run("deactivate restores rollout", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodPost, "/api/admin/killswitch/dark-mode/deactivate", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, decodeData[killswitch.KillSwitch](t, env).Active)

		rec, env = a.do(anonymous, http.MethodGet, "/api/evaluate/dark-mode/alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeData[feature.Decision](t, env).Enabled)

		rec, env = a.do(admin, http.MethodGet, "/api/admin/killswitch/active", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeData[[]killswitch.KillSwitch](t, env))
	})
}

func TestAuditEndpoints(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createFlag(darkMode())
	a.createFlag(map[string]any{"key": "beta-search", "name": "Beta search"})

	rec, _ := a.do(identity{id: "release-bot", role: "ADMIN"}, http.MethodPost,
		"/api/flags/dark-mode/toggle", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("by flag newest first", func(t *testing.T) {
		for _, path := range []string{"/api/audit?flagKey=dark-mode", "/api/audit/flag/dark-mode"} {
			rec, env := a.do(admin, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, rec.Code, path)

			entries := decodeData[[]audit.Entry](t, env)
			require.Len(t, entries, 2, path)
			assert.Equal(t, audit.ActionToggle, entries[0].Action)
			assert.Equal(t, "Toggled feature flag 'dark-mode' to disabled", entries[0].Description)
			assert.Equal(t, audit.ActionCreate, entries[1].Action)
			assert.Equal(t, "203.0.113.7", entries[0].IPAddress)
			assert.Equal(t, "req-test", entries[0].RequestID)
			assert.NoError(t, entries[0].Verify())
			assert.Equal(t, float64(2), env.Meta["count"])
		}
	})

	t.Run("by user", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodGet, "/api/audit/user/release-bot", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decodeData[[]audit.Entry](t, env)
		require.Len(t, entries, 1)
		assert.Equal(t, "release-bot", entries[0].PerformedBy)
	})

	t.Run("limit", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodGet, "/api/audit?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeData[[]audit.Entry](t, env), 2)

		rec, _ = a.do(admin, http.MethodGet, "/api/audit?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("recent", func(t *testing.T) {
		rec, env := a.do(admin, http.MethodGet, "/api/audit/recent?hours=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeData[[]audit.Entry](t, env), 3)

		rec, _ = a.do(admin, http.MethodGet, "/api/audit/recent?hours=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
