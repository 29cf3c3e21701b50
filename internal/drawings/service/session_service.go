package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

// ErrNoBackend is returned by persistence operations before Start succeeded.
var ErrNoBackend = errors.New("no storage backend active")

// Status reports where the service is in its backend lifecycle.
type Status string

const (
	StatusNone      Status = "none"
	StatusActive    Status = "active"
	StatusSwitching Status = "switching"
)

// DirtyClearMode controls when a file's unsaved marker is cleared.
type DirtyClearMode string

const (
	// DirtyClearDelay clears the marker a fixed delay after the last edit.
	DirtyClearDelay DirtyClearMode = "delay"
	// DirtyClearOnSave clears the marker once a save covering the edit lands.
	DirtyClearOnSave DirtyClearMode = "on-save"
)

// PreferenceStore persists the chosen backend across restarts. Backend
// still returns the configured fallback alongside a read error.
type PreferenceStore interface {
	Backend() (storage.Backend, error)
	SetBackend(b storage.Backend) error
	Changed() (storage.Backend, bool, error)
}

type Options struct {
	DirtyClearMode  DirtyClearMode
	DirtyClearDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.DirtyClearMode == "" {
		o.DirtyClearMode = DirtyClearDelay
	}
	if o.DirtyClearDelay <= 0 {
		o.DirtyClearDelay = 5 * time.Second
	}
	return o
}

// SessionService owns the in-memory session state and the active storage
// adapter. Every mutation bumps a version counter; saves write a snapshot
// and record the version they covered, so the autosave job only writes when
// something changed since the last successful save.
type SessionService struct {
	factory storage.Factory
	prefs   PreferenceStore
	opts    Options

	// saveMu serializes saves and backend switches so at most one write
	// is in flight and an adapter is never closed under a running save.
	saveMu sync.Mutex

	mu           sync.Mutex
	state        *domain.SessionState
	adapter      storage.Adapter
	status       Status
	version      uint64
	savedVersion uint64
	lastSaveErr  error
	clearTimers  map[string]*time.Timer
	pendingClear map[string]uint64
}

// NewSessionService builds a service seeded with the default state. prefs
// may be nil, in which case the backend choice is not persisted.
func NewSessionService(factory storage.Factory, prefs PreferenceStore, opts Options) *SessionService {
	return &SessionService{
		factory:      factory,
		prefs:        prefs,
		opts:         opts.withDefaults(),
		state:        domain.DefaultState(),
		status:       StatusNone,
		clearTimers:  make(map[string]*time.Timer),
		pendingClear: make(map[string]uint64),
	}
}

// Start resolves the backend (the explicit argument, else the stored
// preference), initializes and loads it. A load failure is logged and the
// default state is kept; an absent document schedules an initial save.
func (s *SessionService) Start(ctx context.Context, b storage.Backend) error {
	if b == "" && s.prefs != nil {
		pref, err := s.prefs.Backend()
		if err != nil {
			log.Printf("[session] read backend preference, using %q: %v", pref, err)
		}
		b = pref
	}
	if b == "" {
		b = storage.BackendKeyValue
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	adapter, err := s.openAdapter(ctx, b)
	if err != nil {
		return err
	}

	loaded, err := loadChecked(ctx, adapter)
	if err != nil {
		log.Printf("[session] load from %s failed, continuing with default state: %v", b, err)
	}

	s.mu.Lock()
	s.adapter = adapter
	s.status = StatusActive
	switch {
	case loaded != nil:
		s.replaceStateLocked(loaded)
	case err == nil:
		s.touchLocked()
	}
	s.mu.Unlock()

	log.Printf("[session] started with %s backend", b)
	return nil
}

// SwitchBackend activates a different adapter. When the new backend cannot
// be initialized, or denies access while loading, the previous backend stays
// active. A malformed stored document is logged and the switch proceeds with
// the in-memory state. A backend holding no document keeps the in-memory
// state, which the next autosave writes there; nothing is migrated from the
// previous backend beyond that.
func (s *SessionService) SwitchBackend(ctx context.Context, b storage.Backend) error {
	if _, err := storage.ParseBackend(string(b)); err != nil {
		return err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	prevStatus := s.status
	s.status = StatusSwitching
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.status = prevStatus
		s.mu.Unlock()
	}

	adapter, err := s.openAdapter(ctx, b)
	if err != nil {
		restore()
		return err
	}

	loaded, err := loadChecked(ctx, adapter)
	if err != nil {
		if errors.Is(err, storage.ErrPermissionDenied) {
			closeAdapter(adapter)
			restore()
			return fmt.Errorf("failed to load from %s: %w", b, err)
		}
		log.Printf("[session] load from %s failed, keeping in-memory state: %v", b, err)
	}

	s.mu.Lock()
	old := s.adapter
	s.adapter = adapter
	s.status = StatusActive
	s.lastSaveErr = nil
	if loaded != nil {
		s.replaceStateLocked(loaded)
	} else {
		s.touchLocked()
	}
	s.mu.Unlock()

	if old != nil && old != adapter {
		closeAdapter(old)
	}
	if s.prefs != nil {
		if err := s.prefs.SetBackend(b); err != nil {
			log.Printf("[session] persist backend preference: %v", err)
		}
	}

	log.Printf("[session] switched to %s backend", b)
	return nil
}

func (s *SessionService) openAdapter(ctx context.Context, b storage.Backend) (storage.Adapter, error) {
	adapter, err := s.factory(b)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", b, err)
	}
	if err := adapter.Initialize(ctx); err != nil {
		closeAdapter(adapter)
		return nil, fmt.Errorf("failed to initialize %s: %w", b, err)
	}
	return adapter, nil
}

// loadChecked loads from adapter and repairs tab bookkeeping. A document
// that still breaks the state invariants (a cyclic project tree, duplicate
// ids, missing parents) is reported as ErrMalformedState and not returned.
func loadChecked(ctx context.Context, adapter storage.Adapter) (*domain.SessionState, error) {
	st, err := adapter.Load(ctx)
	if err != nil || st == nil {
		return nil, err
	}
	if n := st.Reconcile(); n > 0 {
		log.Printf("[session] repaired %d tab entries in state from %s", n, adapter.Name())
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedState, err)
	}
	return st, nil
}

func closeAdapter(a storage.Adapter) {
	if c, ok := a.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("[session] close %s adapter: %v", a.Name(), err)
		}
	}
}

// PollPreferences follows a backend preference changed outside this
// process, for example by the worker binary.
func (s *SessionService) PollPreferences(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	b, changed, err := s.prefs.Changed()
	if err != nil || !changed {
		return err
	}
	if b == s.Backend() {
		return nil
	}
	log.Printf("[session] backend preference changed to %s", b)
	return s.SwitchBackend(ctx, b)
}

// Save writes the current state to the active backend, whether or not it
// changed since the last save.
func (s *SessionService) Save(ctx context.Context) error {
	return s.save(ctx, true)
}

// Autosave writes the current state only when it changed since the last
// successful save.
func (s *SessionService) Autosave(ctx context.Context) error {
	return s.save(ctx, false)
}

func (s *SessionService) save(ctx context.Context, force bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	adapter := s.adapter
	if adapter == nil {
		s.mu.Unlock()
		return ErrNoBackend
	}
	if !force && s.version == s.savedVersion {
		s.mu.Unlock()
		return nil
	}
	snap := s.state.Clone()
	v := s.version
	s.mu.Unlock()

	conflict, err := adapter.DetectConflicts(ctx)
	if err != nil {
		return s.recordSaveErr(fmt.Errorf("failed to check conflicts: %w", err))
	}
	if conflict {
		if err := adapter.ResolveConflicts(ctx); err != nil {
			return s.recordSaveErr(fmt.Errorf("failed to resolve conflicts: %w", err))
		}
	}

	if err := adapter.Save(ctx, snap); err != nil {
		log.Printf("[session] save to %s failed: %v", adapter.Name(), err)
		return s.recordSaveErr(fmt.Errorf("failed to save: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSaveErr = nil
	if v > s.savedVersion {
		s.savedVersion = v
	}
	if s.opts.DirtyClearMode == DirtyClearOnSave {
		for id, dv := range s.pendingClear {
			if dv <= v {
				delete(s.pendingClear, id)
				if s.state.DirtyFiles.Has(id) {
					s.state.DirtyFiles.Remove(id)
					s.touchLocked()
				}
			}
		}
	}
	return nil
}

func (s *SessionService) recordSaveErr(err error) error {
	s.mu.Lock()
	s.lastSaveErr = err
	s.mu.Unlock()
	return err
}

// Close stops pending dirty-clear timers and closes the active adapter.
func (s *SessionService) Close() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	for id, t := range s.clearTimers {
		t.Stop()
		delete(s.clearTimers, id)
	}
	adapter := s.adapter
	s.adapter = nil
	s.status = StatusNone
	s.mu.Unlock()

	if adapter != nil {
		closeAdapter(adapter)
	}
}

// Info summarizes the service for the status endpoints.
type Info struct {
	Backend       storage.Backend
	Status        Status
	Unsaved       bool
	LastSaveError string
}

func (s *SessionService) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		Status:  s.status,
		Unsaved: s.version != s.savedVersion,
	}
	if s.adapter != nil {
		info.Backend = s.adapter.Name()
	}
	if s.lastSaveErr != nil {
		info.LastSaveError = s.lastSaveErr.Error()
	}
	return info
}

// Backend returns the active backend, or "" before Start.
func (s *SessionService) Backend() storage.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adapter == nil {
		return ""
	}
	return s.adapter.Name()
}

func (s *SessionService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Adapter returns the active adapter so callers can reach backend specific
// extras such as directory exports.
func (s *SessionService) Adapter() storage.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter
}

// Snapshot returns a deep copy of the session state.
func (s *SessionService) Snapshot() *domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *SessionService) touchLocked() {
	s.version++
}

// replaceStateLocked installs a state returned by loadChecked. The loaded
// document is what the backend holds, so the new version counts as saved.
func (s *SessionService) replaceStateLocked(st *domain.SessionState) {
	for id, t := range s.clearTimers {
		t.Stop()
		delete(s.clearTimers, id)
	}
	clear(s.pendingClear)
	s.state = st
	s.touchLocked()
	s.savedVersion = s.version
}

// markDirtyLocked flags fileID as unsaved and arranges for the flag to be
// cleared according to the configured mode.
func (s *SessionService) markDirtyLocked(fileID string) {
	s.state.DirtyFiles.Add(fileID)
	if s.opts.DirtyClearMode == DirtyClearOnSave {
		s.pendingClear[fileID] = s.version
		return
	}
	if t, ok := s.clearTimers[fileID]; ok {
		t.Stop()
	}
	s.clearTimers[fileID] = time.AfterFunc(s.opts.DirtyClearDelay, func() {
		s.clearDirty(fileID)
	})
}

func (s *SessionService) clearDirty(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clearTimers, fileID)
	if s.state.DirtyFiles.Has(fileID) {
		s.state.DirtyFiles.Remove(fileID)
		s.touchLocked()
	}
}

// forgetFileLocked drops every per-file bookkeeping entry for fileID.
func (s *SessionService) forgetFileLocked(fileID string) {
	s.state.CloseTab(fileID)
	if t, ok := s.clearTimers[fileID]; ok {
		t.Stop()
		delete(s.clearTimers, fileID)
	}
	delete(s.pendingClear, fileID)
}
