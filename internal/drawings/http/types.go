package http

import (
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
)

// Handler bundles the dependencies for the drawing session endpoints.
type Handler struct {
	svc      *service.SessionService
	scenes   *service.SceneBuffer
	handles  *directory.HandleStore
	exporter *directory.Adapter
	saves    *rate.Limiter
}

// New wires the handler. handles may be nil when no directory grant store is
// configured; the directory endpoints then answer 412.
func New(svc *service.SessionService, scenes *service.SceneBuffer, handles *directory.HandleStore, saves *rate.Limiter) *Handler {
	h := &Handler{svc: svc, scenes: scenes, handles: handles, saves: saves}
	if handles != nil {
		h.exporter = directory.New(handles)
	}
	if h.saves == nil {
		h.saves = rate.NewLimiter(rate.Inf, 0)
	}
	return h
}

type createProjectReq struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

type nameReq struct {
	Name string `json:"name"`
}

type moveProjectReq struct {
	ParentID string `json:"parentId"`
}

type moveFileReq struct {
	ProjectID string `json:"projectId"`
}

type switchBackendReq struct {
	Backend string `json:"backend"`
}

type grantDirectoryReq struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

type sceneReq struct {
	FileID string          `json:"fileId"`
	Scene  json.RawMessage `json:"scene"`
}

type backendInfo struct {
	ID          string `json:"id"`
	Implemented bool   `json:"implemented"`
}

type storageResp struct {
	Backend       string        `json:"backend"`
	Status        string        `json:"status"`
	Unsaved       bool          `json:"unsaved"`
	LastSaveError string        `json:"lastSaveError,omitempty"`
	Backends      []backendInfo `json:"backends"`
}
