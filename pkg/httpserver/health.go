package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// CheckTimeout bounds each readiness check.
const CheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// Liveness always answers 200 {"status":"alive"}.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: "alive"})
	}
}

// Readiness runs every check and answers 200 {"status":"ready"}, or 503
// with the names of the failing checks.
func Readiness(log *slog.Logger, checks map[string]CheckFunc) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("readiness"))

	return func(w http.ResponseWriter, r *http.Request) {
		var failed []string
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), CheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				log.WarnContext(r.Context(), "readiness check failed",
					slog.String("check", name),
					logger.Error(err),
				)
				failed = append(failed, name)
			}
		}

		if len(failed) > 0 {
			slices.Sort(failed)
			writeHealth(w, http.StatusServiceUnavailable, healthResponse{Status: "not_ready", Failed: failed})
			return
		}
		writeHealth(w, http.StatusOK, healthResponse{Status: "ready"})
	}
}

func writeHealth(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
