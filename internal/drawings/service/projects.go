package service

import (
	"strings"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/drawings/utils"
)

const defaultProjectName = "New Project"

// CreateProject adds a project under parentID ("" for a root). An empty name
// picks the first free "New Project" name among the siblings; an explicit
// name that collides with a sibling is rejected.
func (s *SessionService) CreateProject(name, parentID string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != "" {
		if _, err := s.state.Project(parentID); err != nil {
			return domain.Project{}, err
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.state.UniqueProjectName(parentID, defaultProjectName)
	} else if s.state.NameTaken(parentID, name, "") {
		return domain.Project{}, domain.ErrDuplicateName
	}

	p := domain.Project{
		ID:         utils.NewID(),
		Name:       name,
		Files:      []domain.DrawingFile{},
		CreatedAt:  domain.Now(),
		IsExpanded: true,
		ParentID:   parentID,
	}
	s.state.Projects = append(s.state.Projects, p)
	s.state.CurrentProjectID = p.ID
	s.touchLocked()
	return p, nil
}

// Project returns a copy of the project with the given id.
func (s *SessionService) Project(id string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.state.Project(id)
	if err != nil {
		return domain.Project{}, err
	}
	return cloneProject(*p), nil
}

func (s *SessionService) RenameProject(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(id)
	if err != nil {
		return err
	}
	if s.state.NameTaken(p.ParentID, name, id) {
		return domain.ErrDuplicateName
	}
	if p.Name == name {
		return nil
	}
	p.Name = name
	s.touchLocked()
	return nil
}

// DeleteProject removes the project together with every sub-project and
// all their files. Tabs for removed files are closed with the usual
// reselection rules.
func (s *SessionService) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.state.Project(id); err != nil {
		return err
	}

	removed := make(map[string]bool)
	for _, pid := range s.state.Descendants(id) {
		removed[pid] = true
	}

	kept := s.state.Projects[:0]
	var fileIDs []string
	for _, p := range s.state.Projects {
		if removed[p.ID] {
			for _, f := range p.Files {
				fileIDs = append(fileIDs, f.ID)
			}
			continue
		}
		kept = append(kept, p)
	}
	s.state.Projects = kept

	for _, fid := range fileIDs {
		s.forgetFileLocked(fid)
	}

	if removed[s.state.CurrentProjectID] {
		s.state.CurrentProjectID = ""
		if s.state.CurrentFileID != "" {
			if p, _, err := s.state.LocateFile(s.state.CurrentFileID); err == nil {
				s.state.CurrentProjectID = p.ID
			}
		} else if roots := s.state.Children(""); len(roots) > 0 {
			s.state.CurrentProjectID = roots[0].ID
		}
	}

	s.touchLocked()
	return nil
}

// ToggleProject flips the expanded flag of a project in the tree view.
func (s *SessionService) ToggleProject(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(id)
	if err != nil {
		return false, err
	}
	p.IsExpanded = !p.IsExpanded
	s.touchLocked()
	return p.IsExpanded, nil
}

// MoveProject reparents a project. Moving a project below itself or one of
// its descendants is rejected.
func (s *SessionService) MoveProject(id, newParentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.state.Project(id)
	if err != nil {
		return err
	}
	if p.ParentID == newParentID {
		return nil
	}
	if newParentID != "" {
		if _, err := s.state.Project(newParentID); err != nil {
			return err
		}
		if newParentID == id || s.state.IsAncestor(id, newParentID) {
			return domain.ErrCycle
		}
	}
	if s.state.NameTaken(newParentID, p.Name, id) {
		return domain.ErrDuplicateName
	}
	p.ParentID = newParentID
	s.touchLocked()
	return nil
}

// SelectProject makes id the current project without touching tabs.
func (s *SessionService) SelectProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.state.Project(id); err != nil {
		return err
	}
	if s.state.CurrentProjectID == id {
		return nil
	}
	s.state.CurrentProjectID = id
	s.touchLocked()
	return nil
}

func cloneProject(p domain.Project) domain.Project {
	files := make([]domain.DrawingFile, len(p.Files))
	for i, f := range p.Files {
		files[i] = cloneFile(f)
	}
	p.Files = files
	return p
}

func cloneFile(f domain.DrawingFile) domain.DrawingFile {
	f.Content = append(domain.Scene(nil), f.Content...)
	return f
}
