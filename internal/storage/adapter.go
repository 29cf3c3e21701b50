package storage

import (
	"context"
	"fmt"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
)

// Backend identifies a storage adapter implementation.
type Backend string

const (
	BackendKeyValue  Backend = "keyvalue"
	BackendEmbedded  Backend = "embedded"
	BackendDirectory Backend = "directory"
	BackendPostgres  Backend = "postgres"

	// Listed for the settings surface, not implemented.
	BackendDropbox     Backend = "dropbox"
	BackendGoogleDrive Backend = "googleDrive"
	BackendOneDrive    Backend = "oneDrive"
	BackendWebDAV      Backend = "webdav"
)

// Backends lists every known identifier in display order.
var Backends = []Backend{
	BackendKeyValue, BackendEmbedded, BackendDirectory, BackendPostgres,
	BackendDropbox, BackendGoogleDrive, BackendOneDrive, BackendWebDAV,
}

// Implemented reports whether b has a working adapter.
func (b Backend) Implemented() bool {
	switch b {
	case BackendKeyValue, BackendEmbedded, BackendDirectory, BackendPostgres:
		return true
	}
	return false
}

// ParseBackend validates a configured identifier.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == s {
			if !b.Implemented() {
				return b, fmt.Errorf("%s: %w", s, ErrUnsupportedBackend)
			}
			return b, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownBackend)
}

// Adapter is the load/save contract shared by every backend.
//
// Initialize must be idempotent. Load returns (nil, nil) when nothing has
// been stored yet. Save writes the whole document with the backend's native
// overwrite primitive.
type Adapter interface {
	Name() Backend
	Initialize(ctx context.Context) error
	Load(ctx context.Context) (*domain.SessionState, error)
	Save(ctx context.Context, state *domain.SessionState) error
	// DetectConflicts and ResolveConflicts exist for multi-writer backends.
	// No current backend has external writers, so all report no conflict.
	DetectConflicts(ctx context.Context) (bool, error)
	ResolveConflicts(ctx context.Context) error
}

// Factory builds a fresh, uninitialized adapter for a backend.
type Factory func(b Backend) (Adapter, error)
