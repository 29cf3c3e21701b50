package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/drawings/utils"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

// StateFile is the well-known file holding the session document.
const StateFile = "app-state.json"

var _ storage.Adapter = (*Adapter)(nil)

// Adapter reads and writes the session document inside the directory
// granted through its HandleStore. The store is shared with the grant
// endpoints, so the adapter never closes it; its creator does.
type Adapter struct {
	handles *HandleStore
}

func New(handles *HandleStore) *Adapter {
	return &Adapter{handles: handles}
}

func (a *Adapter) Name() storage.Backend { return storage.BackendDirectory }

// Handles exposes the grant store.
func (a *Adapter) Handles() *HandleStore { return a.handles }

// Initialize opens the handle store and, when a directory was granted,
// checks it is still accessible.
func (a *Adapter) Initialize(ctx context.Context) error {
	dir, err := a.handles.Directory(ctx)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}
	return verifyDirectory(dir)
}

func (a *Adapter) Load(ctx context.Context) (*domain.SessionState, error) {
	dir, err := a.handles.Directory(ctx)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}
	if err := verifyDirectory(dir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, StateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return storage.Unmarshal(data)
}

func (a *Adapter) Save(ctx context.Context, state *domain.SessionState) error {
	dir, err := a.requireDirectory(ctx)
	if err != nil {
		return err
	}
	data, err := storage.Marshal(state)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, StateFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func (a *Adapter) DetectConflicts(context.Context) (bool, error) { return false, nil }

func (a *Adapter) ResolveConflicts(context.Context) error { return nil }

// ExportProject writes every drawing of p as pretty-printed scene JSON into
// <dir>/<project>/<file>.excalidraw and returns the project folder.
func (a *Adapter) ExportProject(ctx context.Context, p domain.Project) (string, error) {
	dir, err := a.requireDirectory(ctx)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, utils.SanitizeFileName(p.Name))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create project folder: %w", err)
	}
	for _, f := range p.Files {
		if _, err := writeScene(target, f); err != nil {
			return "", err
		}
	}
	return target, nil
}

// ExportFile writes a single drawing, inside a project folder when
// projectName is set, and returns the written path.
func (a *Adapter) ExportFile(ctx context.Context, f domain.DrawingFile, projectName string) (string, error) {
	dir, err := a.requireDirectory(ctx)
	if err != nil {
		return "", err
	}
	if projectName != "" {
		dir = filepath.Join(dir, utils.SanitizeFileName(projectName))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create project folder: %w", err)
		}
	}
	return writeScene(dir, f)
}

func (a *Adapter) requireDirectory(ctx context.Context) (string, error) {
	dir, err := a.handles.Directory(ctx)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", storage.ErrNoDirectory
	}
	if err := verifyDirectory(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func writeScene(dir string, f domain.DrawingFile) (string, error) {
	data, err := json.MarshalIndent(f.Content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", f.Name, err)
	}
	path := filepath.Join(dir, utils.SanitizeFileName(f.Name)+".excalidraw")
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path so readers never observe a partial document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
