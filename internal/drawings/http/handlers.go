package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

func (h *Handler) state(c *gin.Context) {
	info := h.svc.Info()
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"state":   storage.ToDocument(h.svc.Snapshot()),
		"tabs":    h.svc.Tabs(),
		"backend": info.Backend,
		"status":  info.Status,
		"unsaved": info.Unsaved,
	})
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	p, err := h.svc.CreateProject(req.Name, req.ParentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": storage.ToDocumentProject(p)})
}

func (h *Handler) renameProject(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	if err := h.svc.RenameProject(c.Param("id"), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteProject(c *gin.Context) {
	if err := h.svc.DeleteProject(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) toggleProject(c *gin.Context) {
	expanded, err := h.svc.ToggleProject(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "isExpanded": expanded})
}

func (h *Handler) moveProject(c *gin.Context) {
	var req moveProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	if err := h.svc.MoveProject(c.Param("id"), req.ParentID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) selectProject(c *gin.Context) {
	if err := h.svc.SelectProject(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) exportProject(c *gin.Context) {
	if h.exporter == nil {
		fail(c, storage.ErrNoDirectory)
		return
	}
	p, err := h.svc.Project(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	dir, err := h.exporter.ExportProject(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": dir, "files": len(p.Files)})
}

func (h *Handler) tabs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "tabs": h.svc.Tabs()})
}

func (h *Handler) closeTab(c *gin.Context) {
	if err := h.svc.CloseFile(c.Param("fileId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tabs": h.svc.Tabs()})
}

func (h *Handler) nextTab(c *gin.Context) {
	h.stepTab(c, h.svc.NextTab)
}

func (h *Handler) prevTab(c *gin.Context) {
	h.stepTab(c, h.svc.PrevTab)
}

func (h *Handler) stepTab(c *gin.Context, step func() (string, error)) {
	id, err := step()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "currentFileId": id})
}

func (h *Handler) pushScene(c *gin.Context) {
	var req sceneReq
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == "" || len(req.Scene) == 0 {
		badBody(c)
		return
	}
	scene, err := service.NormalizeScene(req.Scene)
	if err != nil {
		fail(c, err)
		return
	}
	h.scenes.Put(req.FileID, scene)
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
