package routes

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	drawingshttp "github.com/drawboard/drawboard-backend/internal/drawings/http"
	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
)

type V1Deps struct {
	Session     *service.SessionService
	Scenes      *service.SceneBuffer
	Handles     *directory.HandleStore
	SaveLimiter *rate.Limiter
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	h := drawingshttp.New(dep.Session, dep.Scenes, dep.Handles, dep.SaveLimiter)
	h.Register(api)
}
