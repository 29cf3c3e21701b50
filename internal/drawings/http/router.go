package http

import "github.com/gin-gonic/gin"

// Register attaches the session routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/state", h.state)

	st := rg.Group("/storage")
	st.GET("", h.storageInfo)
	st.PUT("", h.switchBackend)
	st.POST("/save", h.save)
	st.GET("/directory", h.directory)
	st.PUT("/directory", h.grantDirectory)
	st.DELETE("/directory", h.revokeDirectory)

	projects := rg.Group("/projects")
	projects.POST("", h.createProject)
	projects.PATCH("/:id", h.renameProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.POST("/:id/toggle", h.toggleProject)
	projects.POST("/:id/move", h.moveProject)
	projects.POST("/:id/select", h.selectProject)
	projects.POST("/:id/export", h.exportProject)

	files := projects.Group("/:id/files")
	files.POST("", h.createFile)
	files.POST("/upload", h.uploadFile)
	files.PATCH("/:fileId", h.renameFile)
	files.DELETE("/:fileId", h.deleteFile)
	files.POST("/:fileId/duplicate", h.duplicateFile)
	files.POST("/:fileId/move", h.moveFile)
	files.POST("/:fileId/open", h.openFile)
	files.GET("/:fileId/export", h.exportFile)
	files.POST("/:fileId/export", h.exportFileToDirectory)

	tabs := rg.Group("/tabs")
	tabs.GET("", h.tabs)
	tabs.POST("/next", h.nextTab)
	tabs.POST("/prev", h.prevTab)
	tabs.DELETE("/:fileId", h.closeTab)

	rg.PUT("/scene", h.pushScene)
}
