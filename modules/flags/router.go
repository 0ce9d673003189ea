package flags

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Flags      Mountable
	Evaluation Mountable
	Audit      Mountable
	KillSwitch Mountable

	// Version stamps every response with the current snapshot version.
	Version Versioner
}

// Router creates the API router. Mount it under /api.
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	if opts.Version != nil {
		r.Use(SnapshotVersionMiddleware(opts.Version))
	}

	if opts.Flags != nil {
		r.Mount("/flags", opts.Flags.Handle())
	}
	if opts.Evaluation != nil {
		r.Mount("/evaluate", opts.Evaluation.Handle())
	}
	if opts.Audit != nil {
		r.Mount("/audit", opts.Audit.Handle())
	}
	if opts.KillSwitch != nil {
		r.Mount("/admin/killswitch", opts.KillSwitch.Handle())
	}

	return r
}
