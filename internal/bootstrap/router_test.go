package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawboard/drawboard-backend/config"
	httpapi "github.com/drawboard/drawboard-backend/internal/api/http"
	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{
			Backend:    "embedded",
			DataDir:    dir,
			SQLitePath: filepath.Join(dir, "drawboard.db"),
			KVMaxBytes: 1 << 20,
		},
	}
}

func TestStorageFactory(t *testing.T) {
	cfg := testConfig(t)
	handles := directory.NewHandleStore(filepath.Join(cfg.Storage.DataDir, "handles.db"))
	defer handles.Close()
	factory := NewStorageFactory(cfg, handles)

	for _, b := range []storage.Backend{storage.BackendKeyValue, storage.BackendEmbedded, storage.BackendDirectory, storage.BackendPostgres} {
		a, err := factory(b)
		require.NoError(t, err, b)
		assert.Equal(t, b, a.Name())
	}

	_, err := factory(storage.BackendWebDAV)
	assert.ErrorIs(t, err, storage.ErrUnsupportedBackend)
	_, err = factory("tape")
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestBuildRouter_Health(t *testing.T) {
	SetGinMode("test")
	cfg := testConfig(t)
	handles := directory.NewHandleStore(filepath.Join(cfg.Storage.DataDir, "handles.db"))
	defer handles.Close()

	svc := service.NewSessionService(NewStorageFactory(cfg, handles), nil, service.Options{})
	r := BuildRouter(RouterDeps{ServiceName: "drawboard", Version: "test", Session: svc, Scenes: service.NewSceneBuffer(), Handles: handles})

	get := func() httpapi.HealthResponse {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var resp httpapi.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	resp := get()
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "none", resp.Storage)

	require.NoError(t, svc.Start(context.Background(), storage.BackendEmbedded))
	defer svc.Close()

	resp = get()
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "embedded", resp.Backend)
	assert.True(t, resp.Unsaved)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tabs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, gin.TestMode, gin.Mode())
}
