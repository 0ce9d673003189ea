package flags

import (
	"net/http"
	"strconv"

	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
)

// HeaderSnapshotVersion carries the snapshot version a response was served from.
const HeaderSnapshotVersion = "X-Snapshot-Version"

// Versioner reports the latest published snapshot version.
type Versioner interface {
	Version() uint64
}

// SnapshotVersionMiddleware sets HeaderSnapshotVersion before the handler
// runs, so error responses carry it too. Handlers overwrite it with the
// version they actually read or wrote.
func SnapshotVersionMiddleware(v Versioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderSnapshotVersion, strconv.FormatUint(v.Version(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

// respond renders data with the snapshot version in header and meta.
func respond(data any, version uint64, opts ...handler.JSONOption) handler.Response {
	opts = append(opts,
		handler.WithHeader(HeaderSnapshotVersion, strconv.FormatUint(version, 10)),
		handler.WithJSONMeta(map[string]any{"snapshotVersion": version}),
	)
	return handler.JSON(data, opts...)
}

// respondEmpty is respond for bodiless write responses.
func respondEmpty(version uint64) handler.Response {
	return handler.Empty(handler.WithEmptyHeader(HeaderSnapshotVersion, strconv.FormatUint(version, 10)))
}
