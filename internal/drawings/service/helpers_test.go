package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

// memAdapter keeps the serialized document in memory.
type memAdapter struct {
	name storage.Backend

	mu       sync.Mutex
	doc      []byte
	saves    int
	resolved int
	conflict bool
	closed   bool
	initErr  error
	loadErr  error
	saveErr  error
}

func (m *memAdapter) Name() storage.Backend { return m.name }

func (m *memAdapter) Initialize(context.Context) error { return m.initErr }

func (m *memAdapter) Load(context.Context) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return nil, nil
	}
	return storage.Unmarshal(m.doc)
}

func (m *memAdapter) Save(_ context.Context, st *domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := storage.Marshal(st)
	if err != nil {
		return err
	}
	m.doc = data
	m.saves++
	return nil
}

func (m *memAdapter) DetectConflicts(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflict, nil
}

func (m *memAdapter) ResolveConflicts(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflict = false
	m.resolved++
	return nil
}

func (m *memAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memAdapter) stored(t *testing.T) *domain.SessionState {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotNil(t, m.doc, "nothing saved to %s", m.name)
	st, err := storage.Unmarshal(m.doc)
	require.NoError(t, err)
	return st
}

func (m *memAdapter) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memAdapter) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// backends hands out the same adapter per backend so tests can inspect what
// was written across service restarts.
type backends map[storage.Backend]*memAdapter

func newBackends(ids ...storage.Backend) backends {
	bs := backends{}
	for _, id := range ids {
		bs[id] = &memAdapter{name: id}
	}
	return bs
}

func (bs backends) factory(b storage.Backend) (storage.Adapter, error) {
	a, ok := bs[b]
	if !ok {
		return nil, storage.ErrUnsupportedBackend
	}
	a.mu.Lock()
	a.closed = false
	a.mu.Unlock()
	return a, nil
}

type memPrefs struct {
	mu      sync.Mutex
	backend storage.Backend
	changed bool
	readErr error
}

func (p *memPrefs) Backend() (storage.Backend, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backend, p.readErr
}

func (p *memPrefs) SetBackend(b storage.Backend) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backend = b
	return nil
}

func (p *memPrefs) Changed() (storage.Backend, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.changed
	p.changed = false
	return p.backend, c, nil
}

func (p *memPrefs) setExternally(b storage.Backend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backend = b
	p.changed = true
}

func startService(t *testing.T, bs backends, opts Options) *SessionService {
	t.Helper()
	if opts.DirtyClearDelay == 0 {
		opts.DirtyClearDelay = time.Hour
	}
	svc := NewSessionService(bs.factory, nil, opts)
	require.NoError(t, svc.Start(context.Background(), storage.BackendKeyValue))
	t.Cleanup(svc.Close)
	return svc
}
