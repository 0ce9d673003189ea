package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BrendanKechtban/FeatureFlux/pkg/binder"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/requestid"
)

// Classifier maps a domain error to an HTTPError. It returns false for
// errors it does not know.
type Classifier func(err error) (HTTPError, bool)

// classify resolves err in order: HTTPError in the chain, classifier,
// binding errors, internal error.
func classify(err error, classifier Classifier) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if classifier != nil {
		if mapped, ok := classifier(err); ok {
			return mapped
		}
	}
	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrUnsupportedMediaType.WithMessage(err.Error())
	case binder.IsBindingError(err):
		return ErrBadRequest.WithMessage(err.Error())
	}
	return ErrInternalServerError
}

// NewErrorHandler returns an ErrorHandler writing JSON error envelopes.
// Client errors are logged at WARN, server errors at ERROR.
func NewErrorHandler(log *slog.Logger, classifier Classifier) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("error_handler"))

	return func(ctx Context, err error) {
		info := classify(err, classifier)
		r := ctx.Request()

		level := slog.LevelWarn
		if info.Code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if renderErr := renderError(ctx.ResponseWriter(), info); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error", logger.Error(renderErr))
		}
	}
}
