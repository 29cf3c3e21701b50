package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

const (
	// StateKey holds the whole serialized session document.
	StateKey = "drawboard:projects"
	// DefaultMaxBytes bounds the document the way a browser quota would.
	DefaultMaxBytes = 5 << 20
)

var _ storage.Adapter = (*Adapter)(nil)

// Adapter stores the session document under a single Redis key.
type Adapter struct {
	client   *redis.Client
	key      string
	maxBytes int
}

// New creates a key-value adapter. maxBytes <= 0 uses DefaultMaxBytes.
func New(client *redis.Client, maxBytes int) *Adapter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Adapter{client: client, key: StateKey, maxBytes: maxBytes}
}

func (a *Adapter) Name() storage.Backend { return storage.BackendKeyValue }

// Initialize verifies the server is reachable.
func (a *Adapter) Initialize(ctx context.Context) error {
	if err := a.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

func (a *Adapter) Load(ctx context.Context) (*domain.SessionState, error) {
	data, err := a.client.Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return storage.Unmarshal(data)
}

func (a *Adapter) Save(ctx context.Context, state *domain.SessionState) error {
	data, err := storage.Marshal(state)
	if err != nil {
		return err
	}
	if len(data) > a.maxBytes {
		return fmt.Errorf("%w: document is %d bytes, limit %d", storage.ErrQuotaExceeded, len(data), a.maxBytes)
	}
	if err := a.client.Set(ctx, a.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (a *Adapter) DetectConflicts(context.Context) (bool, error) { return false, nil }

func (a *Adapter) ResolveConflicts(context.Context) error { return nil }

// Close releases the Redis client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
