package flags

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
)

// Registry is the part of the engine the flag endpoints need.
type Registry interface {
	Snapshot() *engine.Snapshot
	Version() uint64
	CreateFlag(ctx context.Context, act actor.Actor, f feature.Flag) (feature.Flag, error)
	UpdateFlagByID(ctx context.Context, act actor.Actor, id int64, patch feature.Patch, expectedVersion int64) (feature.Flag, error)
	ToggleFlag(ctx context.Context, act actor.Actor, key string, enabled bool) (feature.Flag, error)
	ArchiveFlag(ctx context.Context, act actor.Actor, key string) (feature.Flag, error)
}

type FlagService struct {
	registry     Registry
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewFlagService(registry Registry, errorHandler handler.ErrorHandler[handler.Context]) *FlagService {
	return &FlagService{
		registry:     registry,
		errorHandler: errorHandler,
	}
}

// Handle serves:
//
//	GET    /                 list live flags (?includeArchived=true for admins)
//	POST   /                 create a flag
//	GET    /key/{key}        get a flag by key
//	GET    /{ref}            get a flag by id
//	PUT    /{ref}            update a flag by id
//	DELETE /{ref}            archive a flag by key
//	POST   /{ref}/toggle     set the master switch of a flag by key
func (s *FlagService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", handler.Wrap(s.list,
		handler.WithBinders[handler.Context, listFlagsRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, listFlagsRequest](s.errorHandler),
	))
	r.Post("/", handler.Wrap(s.create,
		handler.WithBinders[handler.Context, createFlagRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, createFlagRequest](s.errorHandler),
	))
	r.Get("/key/{key}", handler.Wrap(s.getByKey,
		handler.WithBinders[handler.Context, flagKeyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, flagKeyRequest](s.errorHandler),
	))
	r.Get("/{ref}", handler.Wrap(s.getByID,
		handler.WithBinders[handler.Context, flagIDRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, flagIDRequest](s.errorHandler),
	))
	r.Put("/{ref}", handler.Wrap(s.update,
		handler.WithBinders[handler.Context, updateFlagRequest](binder.JSON(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, updateFlagRequest](s.errorHandler),
	))
	r.Delete("/{ref}", handler.Wrap(s.archive,
		handler.WithBinders[handler.Context, refKeyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, refKeyRequest](s.errorHandler),
	))
	r.Post("/{ref}/toggle", handler.Wrap(s.toggle,
		handler.WithBinders[handler.Context, toggleFlagRequest](binder.JSON(), binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, toggleFlagRequest](s.errorHandler),
	))

	return r
}

type listFlagsRequest struct {
	IncludeArchived bool `query:"includeArchived"`
}

func (s *FlagService) list(ctx handler.Context, req listFlagsRequest) handler.Response {
	perm := actor.PermFlagsRead
	if req.IncludeArchived {
		perm = actor.PermFlagsAdmin
	}
	if _, err := actor.Require(ctx, perm); err != nil {
		return handler.Error(err)
	}

	snap := s.registry.Snapshot()
	return respond(snap.Flags(req.IncludeArchived), snap.Version())
}

type flagKeyRequest struct {
	Key string `path:"key"`
}

func (s *FlagService) getByKey(ctx handler.Context, req flagKeyRequest) handler.Response {
	if _, err := actor.Require(ctx, actor.PermFlagsRead); err != nil {
		return handler.Error(err)
	}

	snap := s.registry.Snapshot()
	f, err := snap.Flag(req.Key)
	if err != nil {
		return handler.Error(err)
	}
	return respond(f, snap.Version())
}

type flagIDRequest struct {
	ID int64 `path:"ref"`
}

func (s *FlagService) getByID(ctx handler.Context, req flagIDRequest) handler.Response {
	if _, err := actor.Require(ctx, actor.PermFlagsRead); err != nil {
		return handler.Error(err)
	}

	snap := s.registry.Snapshot()
	f, err := snap.FlagByID(req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return respond(f, snap.Version())
}

type createFlagRequest struct {
	Key               string   `json:"key"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Enabled           bool     `json:"enabled"`
	RolloutPercentage int      `json:"rolloutPercentage"`
	TargetUserIDs     []string `json:"targetUserIds"`
	ExcludedUserIDs   []string `json:"excludedUserIds"`
}

func (s *FlagService) create(ctx handler.Context, req createFlagRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermFlagsWrite)
	if err != nil {
		return handler.Error(err)
	}

	f, err := s.registry.CreateFlag(ctx, act, feature.Flag{
		Key:               req.Key,
		Name:              req.Name,
		Description:       req.Description,
		Enabled:           req.Enabled,
		RolloutPercentage: req.RolloutPercentage,
		TargetUserIDs:     req.TargetUserIDs,
		ExcludedUserIDs:   req.ExcludedUserIDs,
	})
	if err != nil {
		return handler.Error(err)
	}
	return respond(f, s.registry.Version(), handler.WithJSONStatus(http.StatusCreated))
}

type updateFlagRequest struct {
	ID      int64  `json:"-" path:"ref"`
	Version *int64 `json:"version"`
	feature.Patch
}

func (s *FlagService) update(ctx handler.Context, req updateFlagRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermFlagsWrite)
	if err != nil {
		return handler.Error(err)
	}
	if req.Version == nil {
		return handler.Error(invalid("version", "version is required", "required"))
	}

	f, err := s.registry.UpdateFlagByID(ctx, act, req.ID, req.Patch, *req.Version)
	if err != nil {
		return handler.Error(err)
	}
	return respond(f, s.registry.Version())
}

type refKeyRequest struct {
	Key string `path:"ref"`
}

func (s *FlagService) archive(ctx handler.Context, req refKeyRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermFlagsWrite)
	if err != nil {
		return handler.Error(err)
	}

	if _, err := s.registry.ArchiveFlag(ctx, act, req.Key); err != nil {
		return handler.Error(err)
	}
	return respondEmpty(s.registry.Version())
}

type toggleFlagRequest struct {
	Key     string `json:"-" path:"ref"`
	Enabled *bool  `json:"enabled"`
}

func (s *FlagService) toggle(ctx handler.Context, req toggleFlagRequest) handler.Response {
	act, err := actor.Require(ctx, actor.PermFlagsWrite)
	if err != nil {
		return handler.Error(err)
	}
	if req.Enabled == nil {
		return handler.Error(invalid("enabled", "enabled is required", "required"))
	}

	f, err := s.registry.ToggleFlag(ctx, act, req.Key, *req.Enabled)
	if err != nil {
		return handler.Error(err)
	}
	return respond(f, s.registry.Version())
}
