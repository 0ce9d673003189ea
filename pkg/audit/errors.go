package audit

import "errors"

var (
	// ErrEventValidation indicates an entry is missing required fields.
	ErrEventValidation = errors.New("audit entry validation failed")

	// ErrChecksumMismatch indicates an entry no longer matches its checksum.
	ErrChecksumMismatch = errors.New("audit entry checksum mismatch")
)
