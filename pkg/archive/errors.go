package archive

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid audit export configuration")
	ErrNothingToExport = errors.New("no audit entries to export")
	ErrUploadFailed    = errors.New("audit export upload failed")
)
