package actor

import (
	"net/http"
	"strings"

	"github.com/BrendanKechtban/FeatureFlux/pkg/clientip"
	"github.com/BrendanKechtban/FeatureFlux/pkg/requestid"
)

const (
	HeaderID   = "X-Actor-ID"
	HeaderRole = "X-Actor-Role"

	// MaxIDLength bounds accepted actor ids. Audit performed_by columns are sized to match.
	MaxIDLength = 255
)

// Middleware stores the gateway-supplied actor in the request context.
// Requests without a usable X-Actor-ID pass through anonymously.
// It must run after the requestid and clientip middlewares.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderID))
		if id == "" || len(id) > MaxIDLength {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		a := Actor{
			ID:        id,
			Role:      ParseRole(r.Header.Get(HeaderRole)),
			IP:        clientip.FromContext(ctx),
			RequestID: requestid.FromContext(ctx),
		}
		next.ServeHTTP(w, r.WithContext(WithContext(ctx, a)))
	})
}
