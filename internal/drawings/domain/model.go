package domain

import (
	"encoding/json"
	"time"
)

// DefaultProjectID is the id of the project seeded into a fresh session.
const DefaultProjectID = "default-project"

// Scene is the drawing widget's scene data. The persistence layer never
// interprets it.
type Scene = json.RawMessage

// EmptyScene is the content given to newly created drawings.
var EmptyScene = Scene(`{"elements":[],"appState":{"viewBackgroundColor":"#ffffff"},"files":{}}`)

// DrawingFile is a single drawing owned by exactly one project.
type DrawingFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   Scene     `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project is a named collection of drawings. Projects form a tree through
// ParentID; an empty ParentID marks a root project.
type Project struct {
	ID         string
	Name       string
	Files      []DrawingFile
	CreatedAt  time.Time
	IsExpanded bool
	ParentID   string
}

// OpenFile is one tab.
type OpenFile struct {
	FileID    string `json:"fileId"`
	ProjectID string `json:"projectId"`
}

// SessionState is the root aggregate persisted by the storage adapters.
// Projects is a flat arena; the tree is derived from ParentID on query.
// Empty CurrentProjectID/CurrentFileID mean nothing is selected.
type SessionState struct {
	Projects         []Project
	CurrentProjectID string
	CurrentFileID    string
	OpenFiles        []OpenFile
	DirtyFiles       FileSet
}

// Now returns the current time without a monotonic reading so timestamps
// compare equal after a serialization round trip.
func Now() time.Time {
	return time.Now().UTC()
}

// DefaultState returns the seed state used when no stored state exists.
func DefaultState() *SessionState {
	return &SessionState{
		Projects: []Project{
			{
				ID:         DefaultProjectID,
				Name:       "My First Project",
				Files:      []DrawingFile{},
				CreatedAt:  Now(),
				IsExpanded: true,
			},
		},
		CurrentProjectID: DefaultProjectID,
		OpenFiles:        []OpenFile{},
		DirtyFiles:       FileSet{},
	}
}
