package service

import (
	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
)

// Tab is the presentation view of one open file.
type Tab struct {
	FileID    string `json:"fileId"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Dirty     bool   `json:"dirty"`
	Active    bool   `json:"active"`
}

// Tabs lists the open tabs in order. Tabs whose file no longer exists are
// skipped.
func (s *SessionService) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabs := make([]Tab, 0, len(s.state.OpenFiles))
	for _, of := range s.state.OpenFiles {
		_, f, err := s.state.File(of.ProjectID, of.FileID)
		if err != nil {
			continue
		}
		tabs = append(tabs, Tab{
			FileID:    of.FileID,
			ProjectID: of.ProjectID,
			Name:      f.Name,
			Dirty:     s.state.DirtyFiles.Has(of.FileID),
			Active:    of.FileID == s.state.CurrentFileID,
		})
	}
	return tabs
}

// OpenFile activates a drawing, adding a tab for it when it is not open yet.
func (s *SessionService) OpenFile(projectID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.state.File(projectID, fileID); err != nil {
		return err
	}
	if s.state.CurrentFileID == fileID && s.state.CurrentProjectID == projectID {
		return nil
	}
	s.openLocked(projectID, fileID)
	s.touchLocked()
	return nil
}

func (s *SessionService) openLocked(projectID, fileID string) {
	if s.state.OpenIndex(fileID) < 0 {
		s.state.OpenFiles = append(s.state.OpenFiles, domain.OpenFile{FileID: fileID, ProjectID: projectID})
	}
	s.state.CurrentFileID = fileID
	s.state.CurrentProjectID = projectID
}

// CloseFile closes a tab. Closing a file that is not open is a no-op.
func (s *SessionService) CloseFile(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.OpenIndex(fileID) < 0 {
		return nil
	}
	s.forgetFileLocked(fileID)
	s.touchLocked()
	return nil
}

// NextTab activates the tab after the active one. It stops at the last tab.
func (s *SessionService) NextTab() (string, error) {
	return s.stepTab(1)
}

// PrevTab activates the tab before the active one. It stops at the first tab.
func (s *SessionService) PrevTab() (string, error) {
	return s.stepTab(-1)
}

func (s *SessionService) stepTab(delta int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.OpenIndex(s.state.CurrentFileID)
	if i < 0 {
		return "", domain.ErrNoActiveFile
	}
	j := i + delta
	if j < 0 || j >= len(s.state.OpenFiles) {
		return s.state.CurrentFileID, nil
	}
	next := s.state.OpenFiles[j]
	s.state.CurrentFileID = next.FileID
	s.state.CurrentProjectID = next.ProjectID
	s.touchLocked()
	return next.FileID, nil
}
