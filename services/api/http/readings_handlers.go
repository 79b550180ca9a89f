package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// handleRecentReadings returns the newest entries of one building's log,
// oldest first.
// GET /api/readings/:category/:building?limit=50
func (s *Server) handleRecentReadings(c *gin.Context) {
	limit, ok := parseLimit(c.Query("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	category, okC := reading.ParseCategory(c.Param("category"))
	building, okB := reading.ParseBuilding(c.Param("building"))
	if !okC || !okB {
		c.JSON(http.StatusOK, []reading.Entry{})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.StoreTimeout)
	defer cancel()

	entries, err := s.store.ReadRecent(ctx, category, building, limit)
	if err != nil {
		s.fail(c, "read_recent", err)
		return
	}
	if entries == nil {
		entries = []reading.Entry{}
	}

	c.JSON(http.StatusOK, entries)
}
