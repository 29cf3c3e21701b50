package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/drawboard/drawboard-backend/internal/storage"
	"github.com/drawboard/drawboard-backend/internal/storage/embedded"
)

const (
	handleStoreName = "handles"
	// HandleKey stores the granted directory.
	HandleKey = "defaultDir"
	// HandlePathKey stores the optional user-entered path label.
	HandlePathKey = "defaultDirPath"
)

// HandleStore persists the granted directory in its own small database,
// separate from any session state.
type HandleStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewHandleStore(path string) *HandleStore {
	return &HandleStore{path: path}
}

func (h *HandleStore) conn(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		return h.db, nil
	}
	db, err := embedded.Open(ctx, h.path, handleStoreName)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

func (h *HandleStore) get(ctx context.Context, key string) (string, error) {
	db, err := h.conn(ctx)
	if err != nil {
		return "", err
	}
	var v string
	err = db.QueryRowContext(ctx, `SELECT value FROM `+handleStoreName+` WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

func (h *HandleStore) put(ctx context.Context, key, value string) error {
	db, err := h.conn(ctx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO ` + handleStoreName + ` (key, value, updated_at_ns)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ns = excluded.updated_at_ns;
`
	if _, err := db.ExecContext(ctx, q, key, value, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (h *HandleStore) delete(ctx context.Context, key string) error {
	db, err := h.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM `+handleStoreName+` WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Grant records dir as the default directory after checking it is an
// accessible directory. The stored handle is the cleaned absolute path.
func (h *HandleStore) Grant(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	if err := verifyDirectory(abs); err != nil {
		return "", err
	}
	if err := h.put(ctx, HandleKey, abs); err != nil {
		return "", err
	}
	return abs, nil
}

// Directory returns the granted directory, or "" when none was granted.
func (h *HandleStore) Directory(ctx context.Context) (string, error) {
	return h.get(ctx, HandleKey)
}

// Revoke forgets the granted directory. The label is kept.
func (h *HandleStore) Revoke(ctx context.Context) error {
	return h.delete(ctx, HandleKey)
}

// SetLabel stores a human-readable path; an empty label clears it.
func (h *HandleStore) SetLabel(ctx context.Context, label string) error {
	if label == "" {
		return h.delete(ctx, HandlePathKey)
	}
	return h.put(ctx, HandlePathKey, label)
}

func (h *HandleStore) Label(ctx context.Context) (string, error) {
	return h.get(ctx, HandlePathKey)
}

func (h *HandleStore) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// verifyDirectory maps a missing, unreadable or non-directory path to
// storage.ErrPermissionDenied.
func verifyDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", storage.ErrPermissionDenied, dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	}
	return f.Close()
}
