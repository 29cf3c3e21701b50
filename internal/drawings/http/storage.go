package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drawboard/drawboard-backend/internal/storage"
)

func (h *Handler) storageInfo(c *gin.Context) {
	info := h.svc.Info()
	backends := make([]backendInfo, 0, len(storage.Backends))
	for _, b := range storage.Backends {
		backends = append(backends, backendInfo{ID: string(b), Implemented: b.Implemented()})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "storage": storageResp{
		Backend:       string(info.Backend),
		Status:        string(info.Status),
		Unsaved:       info.Unsaved,
		LastSaveError: info.LastSaveError,
		Backends:      backends,
	}})
}

func (h *Handler) switchBackend(c *gin.Context) {
	var req switchBackendReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Backend) == "" {
		badBody(c)
		return
	}
	b := storage.Backend(strings.TrimSpace(req.Backend))
	if err := h.svc.SwitchBackend(c.Request.Context(), b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "backend": h.svc.Backend()})
}

func (h *Handler) save(c *gin.Context) {
	if !h.saves.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "save already requested, try again shortly"})
		return
	}
	if err := h.svc.Save(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) directory(c *gin.Context) {
	if h.handles == nil {
		fail(c, storage.ErrNoDirectory)
		return
	}
	ctx := c.Request.Context()
	dir, err := h.handles.Directory(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	label, err := h.handles.Label(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": dir, "label": label, "granted": dir != ""})
}

func (h *Handler) grantDirectory(c *gin.Context) {
	if h.handles == nil {
		fail(c, storage.ErrNoDirectory)
		return
	}
	var req grantDirectoryReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		badBody(c)
		return
	}
	ctx := c.Request.Context()
	dir, err := h.handles.Grant(ctx, strings.TrimSpace(req.Path))
	if err != nil {
		fail(c, err)
		return
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = dir
	}
	if err := h.handles.SetLabel(ctx, label); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": dir, "label": label})
}

func (h *Handler) revokeDirectory(c *gin.Context) {
	if h.handles == nil {
		fail(c, storage.ErrNoDirectory)
		return
	}
	if err := h.handles.Revoke(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
