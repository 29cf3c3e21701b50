package storage

import "errors"

var (
	ErrNotInitialized     = errors.New("storage backend not initialized")
	ErrMalformedState     = errors.New("stored state is malformed")
	ErrPermissionDenied   = errors.New("storage permission denied")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrNoDirectory        = errors.New("no default directory configured")
	ErrUnsupportedBackend = errors.New("storage backend not supported yet")
	ErrUnknownBackend     = errors.New("unknown storage backend")
)
