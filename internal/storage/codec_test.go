package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() *domain.SessionState {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &domain.SessionState{
		Projects: []domain.Project{
			{ID: "p1", Name: "Alpha", CreatedAt: now, IsExpanded: true, Files: []domain.DrawingFile{
				{ID: "f1", Name: "one", Content: domain.Scene(`{"elements":[{"id":"a"}],"files":{}}`), CreatedAt: now, UpdatedAt: now},
				{ID: "f2", Name: "two", Content: domain.Scene(`{"elements":[]}`), CreatedAt: now, UpdatedAt: now},
			}},
			{ID: "p2", Name: "Child", CreatedAt: now, ParentID: "p1", Files: []domain.DrawingFile{}},
		},
		CurrentProjectID: "p1",
		CurrentFileID:    "f2",
		OpenFiles:        []domain.OpenFile{{FileID: "f1", ProjectID: "p1"}, {FileID: "f2", ProjectID: "p1"}},
		DirtyFiles:       domain.NewFileSet("f2", "f1"),
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	t.Run("populated state", func(t *testing.T) {
		in := testState()
		data, err := Marshal(in)
		require.NoError(t, err)

		out, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("seed state", func(t *testing.T) {
		in := domain.DefaultState()
		data, err := Marshal(in)
		require.NoError(t, err)

		out, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestMarshal_WireShape(t *testing.T) {
	s := testState()
	s.CurrentFileID = ""
	s.OpenFiles = s.OpenFiles[:1]
	s.DirtyFiles = domain.NewFileSet("f1")

	data, err := Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "p1", raw["currentProjectId"])
	assert.Nil(t, raw["currentFileId"])
	assert.Contains(t, raw, "currentFileId")
	assert.Equal(t, []any{"f1"}, raw["dirtyFiles"])

	projects := raw["projects"].([]any)
	root := projects[0].(map[string]any)
	child := projects[1].(map[string]any)
	assert.Nil(t, root["parentId"])
	assert.Equal(t, "p1", child["parentId"])
}

func TestMarshal_DirtyFilesOrderIndependent(t *testing.T) {
	a := testState()
	b := testState()
	b.DirtyFiles = domain.NewFileSet("f1", "f2")

	da, err := Marshal(a)
	require.NoError(t, err)
	db, err := Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(da), string(db))
}

func TestUnmarshal_DefaultsMissingCollections(t *testing.T) {
	out, err := Unmarshal([]byte(`{"projects":[{"id":"p","name":"P","createdAt":"2024-01-02T03:04:05Z"}],"currentProjectId":"p","currentFileId":null}`))
	require.NoError(t, err)

	assert.NotNil(t, out.OpenFiles)
	assert.Empty(t, out.OpenFiles)
	assert.NotNil(t, out.DirtyFiles)
	assert.Empty(t, out.DirtyFiles)
	require.Len(t, out.Projects, 1)
	assert.NotNil(t, out.Projects[0].Files)
	assert.Empty(t, out.Projects[0].ParentID)
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte(`{"projects": [`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedState))
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("embedded")
	require.NoError(t, err)
	assert.Equal(t, BackendEmbedded, b)

	_, err = ParseBackend("dropbox")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)

	_, err = ParseBackend("floppy")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
