package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// registerAPIRoutes sets up the /api group.
func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UnixMilli()})
	})

	// Latest snapshots per building
	latest := api.Group("/latest")
	{
		latest.GET("", s.handleLatestAll)
		latest.GET("/:category", s.handleLatestByCategory)
	}

	api.GET("/readings/:category/:building", s.handleRecentReadings)
}
