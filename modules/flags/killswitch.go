package flags

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
)

// KillSwitches is the kill switch side of the engine.
type KillSwitches interface {
	Snapshot() *engine.Snapshot
	Version() uint64
	ActivateKillSwitch(ctx context.Context, act actor.Actor, flagKey, reason string) (killswitch.KillSwitch, error)
	DeactivateKillSwitch(ctx context.Context, act actor.Actor, flagKey string) (killswitch.KillSwitch, error)
}

type KillSwitchService struct {
	switches     KillSwitches
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewKillSwitchService(switches KillSwitches, errorHandler handler.ErrorHandler[handler.Context]) *KillSwitchService {
	return &KillSwitchService{
		switches:     switches,
		errorHandler: errorHandler,
	}
}

// Handle serves:
//
//	GET  /active                   active switches
//	GET  /{flagKey}                switch of one flag (implicit INACTIVE if none)
//	POST /{flagKey}/activate       {reason}
//	POST /{flagKey}/deactivate
func (s *KillSwitchService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/active", handler.Wrap(s.active,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Get("/{flagKey}", handler.Wrap(s.get,
		handler.WithBinders[handler.Context, killSwitchRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, killSwitchRequest](s.errorHandler),
	))
	r.Post("/{flagKey}/activate", handler.Wrap(s.activate,
		handler.WithBinders[handler.Context, activateRequest](binder.JSON(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, activateRequest](s.errorHandler),
	))
	r.Post("/{flagKey}/deactivate", handler.Wrap(s.deactivate,
		handler.WithBinders[handler.Context, killSwitchRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, killSwitchRequest](s.errorHandler),
	))

	return r
}

func (s *KillSwitchService) active(ctx handler.Context, _ struct{}) handler.Response {
	if _, err := actor.Require(ctx, actor.PermKillSwitch); err != nil {
		return handler.Error(err)
	}

	snap := s.switches.Snapshot()
	return respond(snap.ActiveKillSwitches(), snap.Version())
}

type killSwitchRequest struct {
	FlagKey string `path:"flagKey"`
}

func (s *KillSwitchService) get(ctx handler.Context, req killSwitchRequest) handler.Response {
	if _, err := actor.Require(ctx, actor.PermKillSwitch); err != nil {
		return handler.Error(err)
	}

	snap := s.switches.Snapshot()
	ks, err := snap.KillSwitch(req.FlagKey)
	if err != nil {
		return handler.Error(err)
	}
	return respond(ks, snap.Version())
}

type activateRequest struct {
	FlagKey string `json:"-" path:"flagKey"`
	Reason  string `json:"reason"`
}

func (s *KillSwitchService) activate(ctx handler.Context, req activateRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermKillSwitch)
	if err != nil {
		return handler.Error(err)
	}

	ks, err := s.switches.ActivateKillSwitch(ctx, act, req.FlagKey, req.Reason)
	if err != nil {
		return handler.Error(err)
	}
	return respond(ks, s.switches.Version())
}

func (s *KillSwitchService) deactivate(ctx handler.Context, req killSwitchRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermKillSwitch)
	if err != nil {
		return handler.Error(err)
	}

	ks, err := s.switches.DeactivateKillSwitch(ctx, act, req.FlagKey)
	if err != nil {
		return handler.Error(err)
	}
	return respond(ks, s.switches.Version())
}
