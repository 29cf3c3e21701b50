package embedded

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

const (
	// StoreName is the table acting as the single object store.
	StoreName = "app_state"
	// StateKey is the fixed logical key of the session document.
	StateKey = "state"
)

var _ storage.Adapter = (*Adapter)(nil)

// Adapter keeps the session document in an embedded SQLite database.
type Adapter struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func New(path string) *Adapter {
	return &Adapter{path: path}
}

func (a *Adapter) Name() storage.Backend { return storage.BackendEmbedded }

// Initialize opens the database and creates the store. Calling it again
// after a successful open is a no-op.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return nil
	}
	db, err := Open(ctx, a.path, StoreName)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *Adapter) conn(ctx context.Context) (*sql.DB, error) {
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, storage.ErrNotInitialized
	}
	return a.db, nil
}

func (a *Adapter) Load(ctx context.Context) (*domain.SessionState, error) {
	db, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read: %w", err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM `+StoreName+` WHERE key = ?`, StateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return storage.Unmarshal([]byte(value))
}

func (a *Adapter) Save(ctx context.Context, state *domain.SessionState) error {
	data, err := storage.Marshal(state)
	if err != nil {
		return err
	}
	db, err := a.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO ` + StoreName + ` (key, value, updated_at_ns)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ns = excluded.updated_at_ns;
`
	if _, err := tx.ExecContext(ctx, q, StateKey, string(data), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

func (a *Adapter) DetectConflicts(context.Context) (bool, error) { return false, nil }

func (a *Adapter) ResolveConflicts(context.Context) error { return nil }

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
