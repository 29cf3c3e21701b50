package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drawboard/drawboard-backend/internal/storage"
)

// maxUploadBytes bounds uploaded scene documents.
const maxUploadBytes = 10 << 20

func (h *Handler) createFile(c *gin.Context) {
	var req nameReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c)
			return
		}
	}
	f, err := h.svc.CreateFile(c.Param("id"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) renameFile(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	if err := h.svc.RenameFile(c.Param("id"), c.Param("fileId"), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteFile(c *gin.Context) {
	if err := h.svc.DeleteFile(c.Param("id"), c.Param("fileId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) duplicateFile(c *gin.Context) {
	f, err := h.svc.DuplicateFile(c.Param("id"), c.Param("fileId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) moveFile(c *gin.Context) {
	var req moveFileReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		badBody(c)
		return
	}
	if err := h.svc.MoveFile(c.Param("fileId"), c.Param("id"), req.ProjectID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) openFile(c *gin.Context) {
	if err := h.svc.OpenFile(c.Param("id"), c.Param("fileId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tabs": h.svc.Tabs()})
}

func (h *Handler) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing file"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "file too large"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		fail(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		fail(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	f, err := h.svc.UploadFile(c.Param("id"), fh.Filename, payload)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) exportFile(c *gin.Context) {
	name, data, err := h.svc.ExportFile(c.Param("id"), c.Param("fileId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handler) exportFileToDirectory(c *gin.Context) {
	if h.exporter == nil {
		fail(c, storage.ErrNoDirectory)
		return
	}
	p, err := h.svc.Project(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	f, err := h.svc.File(p.ID, c.Param("fileId"))
	if err != nil {
		fail(c, err)
		return
	}
	path, err := h.exporter.ExportFile(c.Request.Context(), f, p.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": path})
}
