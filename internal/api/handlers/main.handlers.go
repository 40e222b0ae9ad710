package routes

import (
	"net/http"

	"polyring/internal/metrics"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the service info, health and metrics endpoints
func SetupMainHandlers(router *gin.RouterGroup, info map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", metrics.Handler())
}
