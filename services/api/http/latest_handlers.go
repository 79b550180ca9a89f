package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// handleLatestAll returns the newest snapshot of every category and building
// GET /api/latest
func (s *Server) handleLatestAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.StoreTimeout)
	defer cancel()

	latest, err := s.store.ReadLatestAll(ctx)
	if err != nil {
		s.fail(c, "read_latest_all", err)
		return
	}
	if latest == nil {
		latest = map[reading.Category]map[reading.Building]reading.Snapshot{}
	}

	c.JSON(http.StatusOK, latest)
}

// handleLatestByCategory returns the newest snapshot per building of one category
// GET /api/latest/:category
func (s *Server) handleLatestByCategory(c *gin.Context) {
	category, ok := reading.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.StoreTimeout)
	defer cancel()

	latest, err := s.store.ReadLatest(ctx, category)
	if err != nil {
		s.fail(c, "read_latest", err)
		return
	}
	if latest == nil {
		latest = map[reading.Building]reading.Snapshot{}
	}

	c.JSON(http.StatusOK, latest)
}
