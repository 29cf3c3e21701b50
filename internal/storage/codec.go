package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
)

// Document is the persisted shape shared by every backend. Optional
// references are null rather than empty and the dirty set is an array.
type Document struct {
	Projects         []DocumentProject `json:"projects"`
	CurrentProjectID *string           `json:"currentProjectId"`
	CurrentFileID    *string           `json:"currentFileId"`
	OpenFiles        []domain.OpenFile `json:"openFiles"`
	DirtyFiles       []string          `json:"dirtyFiles"`
}

type DocumentProject struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Files      []domain.DrawingFile `json:"files"`
	CreatedAt  time.Time            `json:"createdAt"`
	IsExpanded bool                 `json:"isExpanded"`
	ParentID   *string              `json:"parentId"`
}

// ToDocument converts in-memory state to its persisted shape.
func ToDocument(s *domain.SessionState) *Document {
	doc := &Document{
		Projects:         make([]DocumentProject, 0, len(s.Projects)),
		CurrentProjectID: nullable(s.CurrentProjectID),
		CurrentFileID:    nullable(s.CurrentFileID),
		OpenFiles:        append([]domain.OpenFile{}, s.OpenFiles...),
		DirtyFiles:       s.DirtyFiles.Sorted(),
	}
	for _, p := range s.Projects {
		doc.Projects = append(doc.Projects, ToDocumentProject(p))
	}
	return doc
}

// ToDocumentProject converts one project to its persisted shape.
func ToDocumentProject(p domain.Project) DocumentProject {
	files := p.Files
	if files == nil {
		files = []domain.DrawingFile{}
	}
	return DocumentProject{
		ID:         p.ID,
		Name:       p.Name,
		Files:      files,
		CreatedAt:  p.CreatedAt,
		IsExpanded: p.IsExpanded,
		ParentID:   nullable(p.ParentID),
	}
}

// State converts a persisted document back to in-memory state, defaulting
// absent collections to empty.
func (d *Document) State() *domain.SessionState {
	s := &domain.SessionState{
		Projects:         make([]domain.Project, 0, len(d.Projects)),
		CurrentProjectID: deref(d.CurrentProjectID),
		CurrentFileID:    deref(d.CurrentFileID),
		OpenFiles:        append([]domain.OpenFile{}, d.OpenFiles...),
		DirtyFiles:       domain.NewFileSet(d.DirtyFiles...),
	}
	for _, p := range d.Projects {
		files := p.Files
		if files == nil {
			files = []domain.DrawingFile{}
		}
		s.Projects = append(s.Projects, domain.Project{
			ID:         p.ID,
			Name:       p.Name,
			Files:      files,
			CreatedAt:  p.CreatedAt,
			IsExpanded: p.IsExpanded,
			ParentID:   deref(p.ParentID),
		})
	}
	return s
}

// Marshal serializes state to the persisted JSON document.
func Marshal(s *domain.SessionState) ([]byte, error) {
	data, err := json.Marshal(ToDocument(s))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Unmarshal parses a persisted JSON document. Parse failures wrap
// ErrMalformedState.
func Unmarshal(data []byte) (*domain.SessionState, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return doc.State(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
