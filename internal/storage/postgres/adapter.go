package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"github.com/drawboard/drawboard-backend/config"
	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

// StateKey is the fixed row key of the session document.
const StateKey = "state"

// insufficient_privilege
const pqInsufficientPrivilege = "42501"

var _ storage.Adapter = (*Adapter)(nil)

// Adapter keeps the session document in a single PostgreSQL row.
type Adapter struct {
	connect func(ctx context.Context) (*sql.DB, error)

	mu sync.Mutex
	db *sql.DB
}

// New creates an adapter that connects on Initialize.
func New(cfg *config.DatabaseConfig) *Adapter {
	return &Adapter{
		connect: func(ctx context.Context) (*sql.DB, error) {
			return NewConnection(ctx, cfg)
		},
	}
}

// NewWithDB wraps an already open database.
func NewWithDB(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) Name() storage.Backend { return storage.BackendPostgres }

// Initialize connects when needed and creates the table if missing.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		if a.connect == nil {
			return storage.ErrNotInitialized
		}
		db, err := a.connect(ctx)
		if err != nil {
			return err
		}
		a.db = db
	}

	const q = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	document   JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return mapError("failed to create app_state table", err)
	}
	return nil
}

func (a *Adapter) conn() (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, storage.ErrNotInitialized
	}
	return a.db, nil
}

func (a *Adapter) Load(ctx context.Context) (*domain.SessionState, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}

	const q = `SELECT document FROM app_state WHERE key = $1;`
	var doc []byte
	err = db.QueryRowContext(ctx, q, StateKey).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("failed to get state", err)
	}
	return storage.Unmarshal(doc)
}

func (a *Adapter) Save(ctx context.Context, state *domain.SessionState) error {
	db, err := a.conn()
	if err != nil {
		return err
	}
	data, err := storage.Marshal(state)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO app_state (key, document, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET document = EXCLUDED.document, updated_at = now();
`
	if _, err := db.ExecContext(ctx, q, StateKey, string(data)); err != nil {
		return mapError("failed to save state", err)
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

func mapError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqInsufficientPrivilege {
		return fmt.Errorf("%s: %w: %v", msg, storage.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
