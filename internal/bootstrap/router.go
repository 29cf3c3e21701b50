package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	httpapi "github.com/drawboard/drawboard-backend/internal/api/http"
	"github.com/drawboard/drawboard-backend/internal/api/http/middleware"
	"github.com/drawboard/drawboard-backend/internal/api/http/routes"
	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
)

type RouterDeps struct {
	ServiceName   string
	Version       string
	CORSOrigins   []string
	SaveRateLimit float64
	Session       *service.SessionService
	Scenes        *service.SceneBuffer
	Handles       *directory.HandleStore
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Session)
	healthHandler.RegisterRoutes(r)

	var saves *rate.Limiter
	if dep.SaveRateLimit > 0 {
		saves = rate.NewLimiter(rate.Limit(dep.SaveRateLimit), 1)
	}

	routes.RegisterV1(r, routes.V1Deps{
		Session:     dep.Session,
		Scenes:      dep.Scenes,
		Handles:     dep.Handles,
		SaveLimiter: saves,
	})

	return r
}
