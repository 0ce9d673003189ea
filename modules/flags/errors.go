package flags

import (
	"errors"
	"log/slog"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/handler"
	"github.com/BrendanKechtban/FeatureFlux/pkg/validator"
)

// Classify maps engine errors to HTTP errors. Actor errors are checked
// first because a missing actor is also reported as an invalid argument.
func Classify(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, actor.ErrUnauthenticated):
		return handler.ErrUnauthorized.WithMessage("actor identity is required").Wrap(err), true
	case errors.Is(err, actor.ErrForbidden):
		return handler.ErrForbidden.WithMessage("insufficient privileges").Wrap(err), true
	case errors.Is(err, feature.ErrNotFound):
		return handler.ErrNotFound.WithMessage(feature.ErrNotFound.Error()).Wrap(err), true
	case errors.Is(err, feature.ErrInvalidArgument):
		out := handler.ErrBadRequest.WithMessage(feature.ErrInvalidArgument.Error()).Wrap(err)
		if errs := validator.ExtractValidationErrors(err); errs != nil {
			out = out.WithDetails(errs)
		}
		return out, true
	case errors.Is(err, feature.ErrVersionMismatch):
		return handler.ErrConflict.WithMessage(feature.ErrVersionMismatch.Error()).Wrap(err), true
	case errors.Is(err, feature.ErrAlreadyExists):
		return handler.ErrConflict.WithMessage(feature.ErrAlreadyExists.Error()).Wrap(err), true
	case errors.Is(err, feature.ErrConflict):
		return handler.ErrConflict.WithMessage(feature.ErrConflict.Error()).Wrap(err), true
	case errors.Is(err, engine.ErrFatal):
		return handler.ErrInternalServerError.Wrap(err), true
	}
	return handler.HTTPError{}, false
}

// NewErrorHandler returns the error handler shared by the services.
func NewErrorHandler(log *slog.Logger) handler.ErrorHandler[handler.Context] {
	return handler.NewErrorHandler(log, Classify)
}

// invalid builds a 400 for request-level field errors.
func invalid(field, message, code string) error {
	return errors.Join(feature.ErrInvalidArgument, validator.ValidationErrors{{
		Field:   field,
		Message: message,
		Code:    code,
	}})
}
