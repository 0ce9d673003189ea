package flags

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
)

// Evaluator is the read side of the engine.
type Evaluator interface {
	Snapshot() *engine.Snapshot
}

// EvaluationService answers flag decisions. Evaluation needs no actor:
// it is called by application backends on the hot path.
type EvaluationService struct {
	evaluator    Evaluator
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewEvaluationService(evaluator Evaluator, errorHandler handler.ErrorHandler[handler.Context]) *EvaluationService {
	return &EvaluationService{
		evaluator:    evaluator,
		errorHandler: errorHandler,
	}
}

// Handle serves:
//
//	POST /                     evaluate {flagKey, userId}
//	POST /bulk                 evaluate {flagKey: userId, ...} against one snapshot
//	GET  /{flagKey}/{userId}   evaluate via path
func (s *EvaluationService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", handler.Wrap(s.evaluate,
		handler.WithBinders[handler.Context, evaluateRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, evaluateRequest](s.errorHandler),
	))
	r.Post("/bulk", handler.Wrap(s.evaluateBulk,
		handler.WithBinders[handler.Context, bulkEvaluateRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, bulkEvaluateRequest](s.errorHandler),
	))
	r.Get("/{flagKey}/{userId}", handler.Wrap(s.evaluate,
		handler.WithBinders[handler.Context, evaluateRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, evaluateRequest](s.errorHandler),
	))

	return r
}

type evaluateRequest struct {
	FlagKey string `json:"flagKey" path:"flagKey"`
	UserID  string `json:"userId" path:"userId"`
}

func (s *EvaluationService) evaluate(_ handler.Context, req evaluateRequest) handler.Response {
	if req.FlagKey == "" {
		return handler.Error(invalid("flagKey", "flagKey is required", "required"))
	}

	snap := s.evaluator.Snapshot()
	d, err := snap.Evaluate(req.FlagKey, req.UserID)
	if err != nil {
		return handler.Error(err)
	}
	return respond(d, snap.Version())
}

type bulkEvaluateRequest map[string]string

func (s *EvaluationService) evaluateBulk(_ handler.Context, req bulkEvaluateRequest) handler.Response {
	if len(req) == 0 {
		return handler.Error(invalid("flags", "at least one flag is required", "required"))
	}

	snap := s.evaluator.Snapshot()
	return respond(snap.EvaluateBulk(req), snap.Version())
}
