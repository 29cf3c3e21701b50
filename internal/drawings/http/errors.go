package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drawboard/drawboard-backend/internal/api/http/middleware"
	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound), errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrCycle),
		errors.Is(err, domain.ErrNoActiveFile),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, storage.ErrUnknownBackend):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, storage.ErrUnsupportedBackend):
		return http.StatusNotImplemented
	case errors.Is(err, storage.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, storage.ErrNoDirectory):
		return http.StatusPreconditionFailed
	case errors.Is(err, service.ErrNoBackend):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[http] id=%s %s %s: %v", middleware.GetRequestID(c.Request.Context()), c.Request.Method, c.FullPath(), err)
	}
	c.JSON(code, gin.H{"ok": false, "error": err.Error()})
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
}
