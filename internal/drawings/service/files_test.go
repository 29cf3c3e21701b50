package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

func TestCreateFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})

	f1, err := svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)
	f2, err := svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)
	named, err := svc.CreateFile(domain.DefaultProjectID, " Sketch ")
	require.NoError(t, err)

	assert.Equal(t, "Drawing 1", f1.Name)
	assert.Equal(t, "Drawing 2", f2.Name)
	assert.Equal(t, "Sketch", named.Name)
	assert.JSONEq(t, string(domain.EmptyScene), string(f1.Content))

	snap := svc.Snapshot()
	assert.Len(t, snap.OpenFiles, 3)
	assert.Equal(t, named.ID, snap.CurrentFileID)

	_, err = svc.CreateFile("missing", "")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestRenameAndDeleteFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})
	f, err := svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RenameFile(domain.DefaultProjectID, f.ID, ""), domain.ErrEmptyName)
	assert.ErrorIs(t, svc.RenameFile(domain.DefaultProjectID, "missing", "x"), domain.ErrFileNotFound)
	require.NoError(t, svc.RenameFile(domain.DefaultProjectID, f.ID, "Architecture"))

	got, err := svc.File(domain.DefaultProjectID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Architecture", got.Name)
	assert.False(t, got.UpdatedAt.Before(f.UpdatedAt))

	require.NoError(t, svc.DeleteFile(domain.DefaultProjectID, f.ID))
	snap := svc.Snapshot()
	assert.Empty(t, snap.OpenFiles)
	assert.Empty(t, snap.CurrentFileID)
	assert.ErrorIs(t, svc.DeleteFile(domain.DefaultProjectID, f.ID), domain.ErrFileNotFound)
}

func TestDuplicateFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})
	f, err := svc.CreateFile(domain.DefaultProjectID, "Plan")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateContent(f.ID, domain.Scene(`{"elements":[{"id":"a"}]}`)))

	dup, err := svc.DuplicateFile(domain.DefaultProjectID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan (Copy)", dup.Name)
	assert.NotEqual(t, f.ID, dup.ID)
	assert.Equal(t, `{"elements":[{"id":"a"}]}`, string(dup.Content))

	snap := svc.Snapshot()
	assert.Equal(t, dup.ID, snap.CurrentFileID)
	assert.False(t, snap.DirtyFiles.Has(dup.ID))
}

func TestMoveFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})
	dst, err := svc.CreateProject("Archive", "")
	require.NoError(t, err)
	f, err := svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)

	require.NoError(t, svc.MoveFile(f.ID, domain.DefaultProjectID, domain.DefaultProjectID))

	require.NoError(t, svc.MoveFile(f.ID, domain.DefaultProjectID, dst.ID))
	snap := svc.Snapshot()
	require.NoError(t, snap.Validate())

	owner, _, err := snap.LocateFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, owner.ID)
	assert.Equal(t, []domain.OpenFile{{FileID: f.ID, ProjectID: dst.ID}}, snap.OpenFiles)
	assert.Equal(t, dst.ID, snap.CurrentProjectID)

	assert.ErrorIs(t, svc.MoveFile(f.ID, domain.DefaultProjectID, dst.ID), domain.ErrFileNotFound)
	assert.ErrorIs(t, svc.MoveFile(f.ID, dst.ID, "missing"), domain.ErrProjectNotFound)
}

func TestUploadFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})

	f, err := svc.UploadFile(domain.DefaultProjectID, "flow.excalidraw", []byte("{\n  \"elements\": []\n}"))
	require.NoError(t, err)
	assert.Equal(t, "flow", f.Name)
	assert.Equal(t, `{"elements":[]}`, string(f.Content))
	assert.Empty(t, svc.Tabs(), "uploads are not opened")

	f, err = svc.UploadFile(domain.DefaultProjectID, "nested/dir/board.json", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "board", f.Name)

	for _, bad := range []string{`[1,2]`, `null`, `not json`, `"text"`} {
		_, err := svc.UploadFile(domain.DefaultProjectID, "x.json", []byte(bad))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload, bad)
	}

	_, err = svc.UploadFile("missing", "x.json", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestExportFile(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})
	f, err := svc.CreateFile(domain.DefaultProjectID, "My Drawing!")
	require.NoError(t, err)

	name, data, err := svc.ExportFile(domain.DefaultProjectID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "My_Drawing_.excalidraw", name)
	assert.JSONEq(t, string(domain.EmptyScene), string(data))
	assert.Contains(t, string(data), "\n  ")

	_, _, err = svc.ExportFile(domain.DefaultProjectID, "missing")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestUpdateContent_Guards(t *testing.T) {
	svc := startService(t, newBackends(storage.BackendKeyValue), Options{})

	assert.ErrorIs(t, svc.UpdateContent("any", domain.Scene(`{}`)), domain.ErrNoActiveFile)

	f1, err := svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)
	_, err = svc.CreateFile(domain.DefaultProjectID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateContent(f1.ID, domain.Scene(`{}`)), domain.ErrNotActive)
	assert.ErrorIs(t, svc.UpdateContent("", domain.Scene(`{`)), domain.ErrInvalidPayload)
}
