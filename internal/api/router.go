package api

import (
	routes "polyring/internal/api/handlers"
	"polyring/internal/metrics"
	"polyring/internal/service/polygon"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, info map[string]string, svc *polygon.PolygonService, defaultPrecision int) {
	r.Use(metrics.Middleware())

	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), info)

	// Setup geometry handlers
	routes.SetupPolylineHandlers(api, defaultPrecision)
	routes.SetupPolygonHandlers(api, svc, defaultPrecision)
}
