package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drawboard/drawboard-backend/internal/drawings/service"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Storage   string    `json:"storage"`
	Backend   string    `json:"backend,omitempty"`
	Unsaved   bool      `json:"unsaved"`
}

// SessionInfo is the part of the session service the health check reads.
type SessionInfo interface {
	Info() service.Info
}

type HealthHandler struct {
	serviceName string
	version     string
	session     SessionInfo
}

func NewHealthHandler(serviceName, version string, session SessionInfo) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		session:     session,
	}
}

// HealthCheck reports "degraded" while no backend is active or the last save
// failed; the process itself is still serving.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Storage:   string(service.StatusNone),
	}
	if h.session != nil {
		info := h.session.Info()
		resp.Storage = string(info.Status)
		resp.Backend = string(info.Backend)
		resp.Unsaved = info.Unsaved
		if info.Status != service.StatusActive || info.LastSaveError != "" {
			resp.Status = "degraded"
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
