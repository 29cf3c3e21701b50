package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drawboard/drawboard-backend/internal/storage"
)

// Preferences is the persisted user configuration.
type Preferences struct {
	Storage StoragePreference `yaml:"storage"`
}

type StoragePreference struct {
	Backend storage.Backend `yaml:"backend"`
}

// Store keeps the selected backend in a YAML file and notices when another
// process rewrites it.
type Store struct {
	path     string
	fallback storage.Backend

	mu      sync.Mutex
	modTime time.Time
}

// NewStore returns a store that reports fallback until a preference is
// written.
func NewStore(path string, fallback storage.Backend) *Store {
	return &Store{path: path, fallback: fallback}
}

// Backend reads the selected backend. A missing file yields the fallback,
// and so does an unreadable one, together with the error. The read also
// becomes the baseline for Changed.
func (s *Store) Backend() (storage.Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, mod, err := s.read()
	if err != nil {
		return s.fallback, err
	}
	s.modTime = mod
	return b, nil
}

func (s *Store) read() (storage.Backend, time.Time, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.fallback, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to stat preferences: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse preferences: %w", err)
	}
	if p.Storage.Backend == "" {
		return s.fallback, info.ModTime(), nil
	}
	return p.Storage.Backend, info.ModTime(), nil
}

// SetBackend persists b as the selected backend.
func (s *Store) SetBackend(b storage.Backend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(Preferences{Storage: StoragePreference{Backend: b}})
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return nil
}

// Changed reports the stored backend when the file was modified since the
// last call to Changed or SetBackend.
func (s *Store) Changed() (storage.Backend, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, mod, err := s.read()
	if err != nil {
		return "", false, err
	}
	if mod.IsZero() || mod.Equal(s.modTime) {
		return b, false, nil
	}
	s.modTime = mod
	return b, true, nil
}
