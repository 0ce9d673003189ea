package flags

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
)

// AuditReader queries the audit ledger.
type AuditReader interface {
	Version() uint64
	AuditLog(ctx context.Context, c audit.Criteria) ([]audit.Entry, error)
}

type AuditService struct {
	reader       AuditReader
	errorHandler handler.ErrorHandler[handler.Context]
	now          func() time.Time
}

func NewAuditService(reader AuditReader, errorHandler handler.ErrorHandler[handler.Context]) *AuditService {
	return &AuditService{
		reader:       reader,
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Handle serves, newest first:
//
//	GET /                    recent entries, optionally ?flagKey=&limit=
//	GET /flag/{flagKey}      history of one flag
//	GET /user/{username}     entries performed by one actor
//	GET /recent              entries of the last ?hours= (default 24)
func (s *AuditService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", handler.Wrap(s.query,
		handler.WithBinders[handler.Context, auditQueryRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, auditQueryRequest](s.errorHandler),
	))
	r.Get("/flag/{flagKey}", handler.Wrap(s.query,
		handler.WithBinders[handler.Context, auditQueryRequest](binder.Query(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, auditQueryRequest](s.errorHandler),
	))
	r.Get("/user/{username}", handler.Wrap(s.byUser,
		handler.WithBinders[handler.Context, auditUserRequest](binder.Query(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, auditUserRequest](s.errorHandler),
	))
	r.Get("/recent", handler.Wrap(s.recent,
		handler.WithBinders[handler.Context, auditRecentRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, auditRecentRequest](s.errorHandler),
	))

	return r
}

type auditQueryRequest struct {
	FlagKey string `query:"flagKey" path:"flagKey"`
	Limit   int    `query:"limit" path:"-"`
}

func (s *AuditService) query(ctx handler.Context, req auditQueryRequest) handler.Response {
	return s.respond(ctx, audit.Criteria{EntityKey: req.FlagKey, Limit: req.Limit})
}

type auditUserRequest struct {
	Username string `query:"-" path:"username"`
	Limit    int    `query:"limit" path:"-"`
}

func (s *AuditService) byUser(ctx handler.Context, req auditUserRequest) handler.Response {
	return s.respond(ctx, audit.Criteria{PerformedBy: req.Username, Limit: req.Limit})
}

// DefaultRecentHours is the window of /recent when hours is omitted.
const DefaultRecentHours = 24

type auditRecentRequest struct {
	Hours *int `query:"hours"`
	Limit int  `query:"limit"`
}

func (s *AuditService) recent(ctx handler.Context, req auditRecentRequest) handler.Response {
	hours := DefaultRecentHours
	if req.Hours != nil {
		hours = *req.Hours
	}
	if hours <= 0 {
		return handler.Error(invalid("hours", "hours must be positive", "min"))
	}

	since := s.now().Add(-time.Duration(hours) * time.Hour)
	return s.respond(ctx, audit.Criteria{Since: since, Limit: req.Limit})
}

func (s *AuditService) respond(ctx handler.Context, c audit.Criteria) handler.Response {
	if _, err := actor.Require(ctx, actor.PermAuditRead); err != nil {
		return handler.Error(err)
	}
	if c.Limit < 0 {
		return handler.Error(invalid("limit", "limit must not be negative", "min"))
	}

	entries, err := s.reader.AuditLog(ctx, c)
	if err != nil {
		return handler.Error(err)
	}
	return respond(entries, s.reader.Version(), handler.WithJSONMeta(map[string]any{
		"count": len(entries),
	}))
}
