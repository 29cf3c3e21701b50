package domain

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// FileSet is a set of file ids.
type FileSet map[string]struct{}

// NewFileSet builds a set from ids, ignoring duplicates.
func NewFileSet(ids ...string) FileSet {
	s := make(FileSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s FileSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s FileSet) Add(id string) { s[id] = struct{}{} }

func (s FileSet) Remove(id string) { delete(s, id) }

// Sorted returns the members in a stable order.
func (s FileSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy. Scene bytes are copied so later edits to either
// copy never alias.
func (s *SessionState) Clone() *SessionState {
	out := &SessionState{
		Projects:         make([]Project, len(s.Projects)),
		CurrentProjectID: s.CurrentProjectID,
		CurrentFileID:    s.CurrentFileID,
		OpenFiles:        append([]OpenFile{}, s.OpenFiles...),
		DirtyFiles:       make(FileSet, len(s.DirtyFiles)),
	}
	for i, p := range s.Projects {
		cp := p
		cp.Files = make([]DrawingFile, len(p.Files))
		for j, f := range p.Files {
			f.Content = bytes.Clone(f.Content)
			cp.Files[j] = f
		}
		out.Projects[i] = cp
	}
	for id := range s.DirtyFiles {
		out.DirtyFiles.Add(id)
	}
	return out
}

// Project returns the project with the given id.
func (s *SessionState) Project(id string) (*Project, error) {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i], nil
		}
	}
	return nil, ErrProjectNotFound
}

// File returns the file with the given id inside the given project.
func (s *SessionState) File(projectID, fileID string) (*Project, *DrawingFile, error) {
	p, err := s.Project(projectID)
	if err != nil {
		return nil, nil, err
	}
	i := p.fileIndex(fileID)
	if i < 0 {
		return nil, nil, ErrFileNotFound
	}
	return p, &p.Files[i], nil
}

// LocateFile finds the project currently owning fileID.
func (s *SessionState) LocateFile(fileID string) (*Project, *DrawingFile, error) {
	for i := range s.Projects {
		p := &s.Projects[i]
		if j := p.fileIndex(fileID); j >= 0 {
			return p, &p.Files[j], nil
		}
	}
	return nil, nil, ErrFileNotFound
}

func (p *Project) fileIndex(fileID string) int {
	for i := range p.Files {
		if p.Files[i].ID == fileID {
			return i
		}
	}
	return -1
}

// RemoveFile drops fileID from the project and returns it.
func (p *Project) RemoveFile(fileID string) (DrawingFile, bool) {
	i := p.fileIndex(fileID)
	if i < 0 {
		return DrawingFile{}, false
	}
	f := p.Files[i]
	p.Files = append(p.Files[:i], p.Files[i+1:]...)
	return f, true
}

// Children returns the direct sub-projects of parentID ("" for roots) in
// arena order.
func (s *SessionState) Children(parentID string) []*Project {
	var out []*Project
	for i := range s.Projects {
		if s.Projects[i].ParentID == parentID {
			out = append(out, &s.Projects[i])
		}
	}
	return out
}

// Descendants returns id plus the ids of every project below it. Each
// project is visited once, so a cyclic tree still terminates.
func (s *SessionState) Descendants(id string) []string {
	out := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, c := range s.Children(out[i]) {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c.ID)
		}
	}
	return out
}

// IsAncestor reports whether ancestorID appears on the parent chain of id.
// The walk is bounded so a corrupted (cyclic) tree cannot hang it.
func (s *SessionState) IsAncestor(ancestorID, id string) bool {
	cur := id
	for range len(s.Projects) + 1 {
		p, err := s.Project(cur)
		if err != nil || p.ParentID == "" {
			return false
		}
		if p.ParentID == ancestorID {
			return true
		}
		cur = p.ParentID
	}
	return false
}

// NameTaken reports whether a sibling under parentID other than exceptID
// already uses name, compared case-insensitively.
func (s *SessionState) NameTaken(parentID, name, exceptID string) bool {
	for _, p := range s.Children(parentID) {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// UniqueProjectName returns base, or base with the first free numeric
// suffix ("base 2", "base 3", ...) among the siblings under parentID.
func (s *SessionState) UniqueProjectName(parentID, base string) string {
	if !s.NameTaken(parentID, base, "") {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s %d", base, n)
		if !s.NameTaken(parentID, name, "") {
			return name
		}
	}
}

// OpenIndex returns the tab index of fileID, or -1.
func (s *SessionState) OpenIndex(fileID string) int {
	for i, of := range s.OpenFiles {
		if of.FileID == fileID {
			return i
		}
	}
	return -1
}

// CloseTab removes fileID from the open tabs and the dirty set. When it was
// the active file, the previous tab (or the first remaining one) becomes
// active, or nothing when no tabs remain.
func (s *SessionState) CloseTab(fileID string) {
	s.DirtyFiles.Remove(fileID)
	i := s.OpenIndex(fileID)
	if i < 0 {
		if s.CurrentFileID == fileID {
			s.CurrentFileID = ""
		}
		return
	}
	s.OpenFiles = append(s.OpenFiles[:i], s.OpenFiles[i+1:]...)
	if s.CurrentFileID != fileID {
		return
	}
	switch {
	case len(s.OpenFiles) == 0:
		s.CurrentFileID = ""
	case i > 0:
		s.CurrentFileID = s.OpenFiles[i-1].FileID
		s.CurrentProjectID = s.OpenFiles[i-1].ProjectID
	default:
		s.CurrentFileID = s.OpenFiles[0].FileID
		s.CurrentProjectID = s.OpenFiles[0].ProjectID
	}
}

// Validate checks the aggregate invariants: unique ids, existing parents,
// sibling name uniqueness, an acyclic tree, tabs pointing at real files, the
// active file being open and dirty files being open.
func (s *SessionState) Validate() error {
	projects := make(map[string]*Project, len(s.Projects))
	files := make(map[string]string)
	for i := range s.Projects {
		p := &s.Projects[i]
		if _, dup := projects[p.ID]; dup {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
		projects[p.ID] = p
		for _, f := range p.Files {
			if _, dup := files[f.ID]; dup {
				return fmt.Errorf("duplicate file id %q", f.ID)
			}
			files[f.ID] = p.ID
		}
	}
	for _, p := range projects {
		if p.ParentID != "" {
			if _, ok := projects[p.ParentID]; !ok {
				return fmt.Errorf("project %q references missing parent %q", p.ID, p.ParentID)
			}
			if p.ParentID == p.ID || s.IsAncestor(p.ID, p.ID) {
				return fmt.Errorf("project %q is part of a cycle", p.ID)
			}
		}
		if s.NameTaken(p.ParentID, p.Name, p.ID) {
			return fmt.Errorf("project %q: %w", p.Name, ErrDuplicateName)
		}
	}
	open := make(map[string]bool, len(s.OpenFiles))
	for _, of := range s.OpenFiles {
		if open[of.FileID] {
			return fmt.Errorf("file %q opened twice", of.FileID)
		}
		open[of.FileID] = true
		if owner, ok := files[of.FileID]; !ok || owner != of.ProjectID {
			return fmt.Errorf("open file %q does not exist in project %q", of.FileID, of.ProjectID)
		}
	}
	if s.CurrentFileID != "" && !open[s.CurrentFileID] {
		return fmt.Errorf("active file %q is not open", s.CurrentFileID)
	}
	for id := range s.DirtyFiles {
		if !open[id] {
			return fmt.Errorf("dirty file %q is not open", id)
		}
	}
	return nil
}

// Reconcile repairs tab bookkeeping in a loaded state: tabs pointing at
// missing files are dropped, duplicate tabs collapse, tab project ids follow
// the file's real owner, the active file must be open and dirty files must
// be open. It returns the number of repairs made.
func (s *SessionState) Reconcile() int {
	fixes := 0
	if s.OpenFiles == nil {
		s.OpenFiles = []OpenFile{}
	}
	if s.DirtyFiles == nil {
		s.DirtyFiles = FileSet{}
	}

	seen := make(map[string]bool, len(s.OpenFiles))
	kept := s.OpenFiles[:0]
	for _, of := range s.OpenFiles {
		p, _, err := s.LocateFile(of.FileID)
		if err != nil || seen[of.FileID] {
			fixes++
			continue
		}
		if of.ProjectID != p.ID {
			of.ProjectID = p.ID
			fixes++
		}
		seen[of.FileID] = true
		kept = append(kept, of)
	}
	s.OpenFiles = kept

	if s.CurrentFileID != "" && !seen[s.CurrentFileID] {
		s.CurrentFileID = ""
		fixes++
	}
	for id := range s.DirtyFiles {
		if !seen[id] {
			s.DirtyFiles.Remove(id)
			fixes++
		}
	}
	if s.CurrentProjectID != "" {
		if _, err := s.Project(s.CurrentProjectID); err != nil {
			s.CurrentProjectID = ""
			fixes++
		}
	}
	return fixes
}
