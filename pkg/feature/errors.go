package feature

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown or archived flags.
	ErrNotFound = errors.New("feature flag not found")

	// ErrInvalidArgument wraps validation failures of flag fields.
	ErrInvalidArgument = errors.New("invalid feature flag parameters")

	// ErrConflict covers duplicate keys and stale versions.
	ErrConflict = errors.New("feature flag conflict")

	ErrAlreadyExists   = fmt.Errorf("%w: key already exists", ErrConflict)
	ErrVersionMismatch = fmt.Errorf("%w: version mismatch", ErrConflict)
)
