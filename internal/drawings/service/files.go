package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/drawings/utils"
)

const copySuffix = " (Copy)"

// CreateFile adds an empty drawing to a project, opens it in a new tab and
// makes it active. An empty name becomes "Drawing N".
func (s *SessionService) CreateFile(projectID, name string) (domain.DrawingFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(projectID)
	if err != nil {
		return domain.DrawingFile{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = nextDrawingName(p)
	}

	now := domain.Now()
	f := domain.DrawingFile{
		ID:        utils.NewID(),
		Name:      name,
		Content:   bytes.Clone(domain.EmptyScene),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Files = append(p.Files, f)
	s.openLocked(p.ID, f.ID)
	s.touchLocked()
	return cloneFile(f), nil
}

func nextDrawingName(p *domain.Project) string {
	taken := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		taken[strings.ToLower(f.Name)] = true
	}
	for n := len(p.Files) + 1; ; n++ {
		name := fmt.Sprintf("Drawing %d", n)
		if !taken[strings.ToLower(name)] {
			return name
		}
	}
}

// File returns a copy of a drawing.
func (s *SessionService) File(projectID, fileID string) (domain.DrawingFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, f, err := s.state.File(projectID, fileID)
	if err != nil {
		return domain.DrawingFile{}, err
	}
	return cloneFile(*f), nil
}

func (s *SessionService) RenameFile(projectID, fileID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, f, err := s.state.File(projectID, fileID)
	if err != nil {
		return err
	}
	if f.Name == name {
		return nil
	}
	f.Name = name
	f.UpdatedAt = domain.Now()
	s.touchLocked()
	return nil
}

// DeleteFile removes a drawing and closes its tab.
func (s *SessionService) DeleteFile(projectID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(projectID)
	if err != nil {
		return err
	}
	if _, ok := p.RemoveFile(fileID); !ok {
		return domain.ErrFileNotFound
	}
	s.forgetFileLocked(fileID)
	s.touchLocked()
	return nil
}

// DuplicateFile copies a drawing within its project under "<name> (Copy)"
// and opens the copy.
func (s *SessionService) DuplicateFile(projectID, fileID string) (domain.DrawingFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, src, err := s.state.File(projectID, fileID)
	if err != nil {
		return domain.DrawingFile{}, err
	}

	now := domain.Now()
	f := domain.DrawingFile{
		ID:        utils.NewID(),
		Name:      src.Name + copySuffix,
		Content:   bytes.Clone(src.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Files = append(p.Files, f)
	s.openLocked(p.ID, f.ID)
	s.touchLocked()
	return cloneFile(f), nil
}

// MoveFile transfers a drawing to another project, keeping its tab open
// under the new owner. Moving to the same project is a no-op.
func (s *SessionService) MoveFile(fileID, fromProjectID, toProjectID string) error {
	if fromProjectID == toProjectID {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst, err := s.state.Project(toProjectID)
	if err != nil {
		return err
	}
	src, err := s.state.Project(fromProjectID)
	if err != nil {
		return err
	}
	f, ok := src.RemoveFile(fileID)
	if !ok {
		return domain.ErrFileNotFound
	}
	dst.Files = append(dst.Files, f)

	for i := range s.state.OpenFiles {
		if s.state.OpenFiles[i].FileID == fileID {
			s.state.OpenFiles[i].ProjectID = toProjectID
		}
	}
	if s.state.CurrentFileID == fileID {
		s.state.CurrentProjectID = toProjectID
	}
	s.touchLocked()
	return nil
}

// UploadFile imports a scene document into a project without opening it.
// The drawing is named after the uploaded file with any .excalidraw or .json
// extension removed.
func (s *SessionService) UploadFile(projectID, filename string, payload []byte) (domain.DrawingFile, error) {
	content, err := NormalizeScene(payload)
	if err != nil {
		return domain.DrawingFile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(projectID)
	if err != nil {
		return domain.DrawingFile{}, err
	}

	name := strings.TrimSpace(utils.TrimDrawingExt(filepath.Base(filename)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = nextDrawingName(p)
	}

	now := domain.Now()
	f := domain.DrawingFile{
		ID:        utils.NewID(),
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Files = append(p.Files, f)
	s.touchLocked()
	return cloneFile(f), nil
}

// ExportFile renders a drawing as a pretty-printed scene document together
// with a filesystem safe download name.
func (s *SessionService) ExportFile(projectID, fileID string) (string, []byte, error) {
	f, err := s.File(projectID, fileID)
	if err != nil {
		return "", nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, f.Content, "", "  "); err != nil {
		return "", nil, fmt.Errorf("failed to format scene: %w", err)
	}
	return utils.SanitizeFileName(f.Name) + ".excalidraw", out.Bytes(), nil
}

// UpdateContent stores a new scene for the active file and marks it dirty.
// fileID guards against a scene sampled before the user switched tabs; it
// must name the currently active file. Identical content is ignored.
func (s *SessionService) UpdateContent(fileID string, content domain.Scene) error {
	content, err := NormalizeScene(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentFileID == "" {
		return domain.ErrNoActiveFile
	}
	if fileID != s.state.CurrentFileID {
		return domain.ErrNotActive
	}
	_, f, err := s.state.LocateFile(fileID)
	if err != nil {
		return err
	}
	if bytes.Equal(f.Content, content) {
		return nil
	}
	f.Content = content
	f.UpdatedAt = domain.Now()
	s.touchLocked()
	s.markDirtyLocked(fileID)
	return nil
}

// NormalizeScene checks that payload is a JSON object and returns it
// compacted, the form stored documents hold.
func NormalizeScene(payload []byte) (domain.Scene, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, domain.ErrInvalidPayload
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return compact.Bytes(), nil
}
