package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *SessionState {
	now := Now()
	return &SessionState{
		Projects: []Project{
			{ID: "p1", Name: "Alpha", CreatedAt: now, Files: []DrawingFile{
				{ID: "f1", Name: "one", Content: Scene(`{"elements":[1]}`), CreatedAt: now, UpdatedAt: now},
				{ID: "f2", Name: "two", Content: Scene(`{"elements":[2]}`), CreatedAt: now, UpdatedAt: now},
			}},
			{ID: "p2", Name: "Beta", CreatedAt: now, ParentID: "p1", Files: []DrawingFile{
				{ID: "f3", Name: "three", Content: Scene(`{}`), CreatedAt: now, UpdatedAt: now},
			}},
			{ID: "p3", Name: "Gamma", CreatedAt: now, ParentID: "p2", Files: []DrawingFile{}},
		},
		CurrentProjectID: "p1",
		CurrentFileID:    "f2",
		OpenFiles:        []OpenFile{{FileID: "f1", ProjectID: "p1"}, {FileID: "f2", ProjectID: "p1"}, {FileID: "f3", ProjectID: "p2"}},
		DirtyFiles:       NewFileSet("f2"),
	}
}

func TestDefaultState(t *testing.T) {
	s := DefaultState()
	require.Len(t, s.Projects, 1)
	assert.Equal(t, "My First Project", s.Projects[0].Name)
	assert.Equal(t, DefaultProjectID, s.CurrentProjectID)
	assert.Empty(t, s.CurrentFileID)
	assert.Empty(t, s.OpenFiles)
	assert.Empty(t, s.DirtyFiles)
	require.NoError(t, s.Validate())
}

func TestClone_IsDeep(t *testing.T) {
	s := sampleState()
	c := s.Clone()
	require.Equal(t, s, c)

	c.Projects[0].Files[0].Content[2] = 'X'
	c.Projects[0].Name = "changed"
	c.DirtyFiles.Add("f1")
	c.OpenFiles[0].FileID = "zz"

	assert.Equal(t, "Alpha", s.Projects[0].Name)
	assert.Equal(t, `{"elements":[1]}`, string(s.Projects[0].Files[0].Content))
	assert.False(t, s.DirtyFiles.Has("f1"))
	assert.Equal(t, "f1", s.OpenFiles[0].FileID)
}

func TestTreeQueries(t *testing.T) {
	s := sampleState()

	roots := s.Children("")
	require.Len(t, roots, 1)
	assert.Equal(t, "p1", roots[0].ID)

	assert.Equal(t, []string{"p1", "p2", "p3"}, s.Descendants("p1"))
	assert.True(t, s.IsAncestor("p1", "p3"))
	assert.False(t, s.IsAncestor("p3", "p1"))
}

func TestDescendants_CyclicTree(t *testing.T) {
	s := sampleState()
	s.Projects[0].ParentID = "p3"

	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, s.Descendants("p1"))
	assert.Error(t, s.Validate())
}

func TestNameTaken_CaseInsensitive(t *testing.T) {
	s := sampleState()
	assert.True(t, s.NameTaken("", "alpha", ""))
	assert.False(t, s.NameTaken("", "alpha", "p1"))
	assert.False(t, s.NameTaken("p1", "alpha", ""))
	assert.True(t, s.NameTaken("p1", "BETA", ""))
}

func TestUniqueProjectName(t *testing.T) {
	s := sampleState()
	assert.Equal(t, "New Project", s.UniqueProjectName("", "New Project"))
	assert.Equal(t, "Alpha 2", s.UniqueProjectName("", "Alpha"))

	s.Projects = append(s.Projects, Project{ID: "p4", Name: "alpha 2"})
	assert.Equal(t, "Alpha 3", s.UniqueProjectName("", "Alpha"))
}

func TestCloseTab(t *testing.T) {
	t.Run("active tab falls back to previous", func(t *testing.T) {
		s := sampleState()
		s.CloseTab("f2")
		assert.Equal(t, "f1", s.CurrentFileID)
		assert.False(t, s.DirtyFiles.Has("f2"))
		assert.Len(t, s.OpenFiles, 2)
	})

	t.Run("first tab falls back to new first", func(t *testing.T) {
		s := sampleState()
		s.CurrentFileID = "f1"
		s.CloseTab("f1")
		assert.Equal(t, "f2", s.CurrentFileID)
	})

	t.Run("last remaining tab clears selection", func(t *testing.T) {
		s := sampleState()
		s.OpenFiles = s.OpenFiles[1:2]
		s.CloseTab("f2")
		assert.Empty(t, s.CurrentFileID)
		assert.Empty(t, s.OpenFiles)
	})

	t.Run("inactive tab leaves selection", func(t *testing.T) {
		s := sampleState()
		s.CloseTab("f3")
		assert.Equal(t, "f2", s.CurrentFileID)
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleState().Validate())

	cases := map[string]func(s *SessionState){
		"duplicate sibling name": func(s *SessionState) { s.Projects[2].ParentID = "p1"; s.Projects[2].Name = "beta" },
		"missing parent":         func(s *SessionState) { s.Projects[2].ParentID = "nope" },
		"cycle":                  func(s *SessionState) { s.Projects[0].ParentID = "p3" },
		"active not open":        func(s *SessionState) { s.CurrentFileID = "f9" },
		"dirty not open":         func(s *SessionState) { s.DirtyFiles.Add("f9") },
		"tab on wrong project":   func(s *SessionState) { s.OpenFiles[0].ProjectID = "p2" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sampleState()
			mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestReconcile(t *testing.T) {
	s := sampleState()
	s.OpenFiles = append(s.OpenFiles,
		OpenFile{FileID: "gone", ProjectID: "p1"},
		OpenFile{FileID: "f1", ProjectID: "p1"},
	)
	s.OpenFiles[2].ProjectID = "p1" // f3 actually lives in p2
	s.DirtyFiles.Add("gone")
	s.CurrentProjectID = "deleted"

	fixes := s.Reconcile()
	assert.Equal(t, 5, fixes)
	assert.Equal(t, []OpenFile{{FileID: "f1", ProjectID: "p1"}, {FileID: "f2", ProjectID: "p1"}, {FileID: "f3", ProjectID: "p2"}}, s.OpenFiles)
	assert.False(t, s.DirtyFiles.Has("gone"))
	assert.Empty(t, s.CurrentProjectID)
	assert.Equal(t, "f2", s.CurrentFileID)
	require.NoError(t, s.Validate())

	assert.Zero(t, s.Reconcile())
}
