package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// History returns the attendance list, cache-first. `?refresh=true` forces a
// round trip to the validator and fails when it is unreachable.
func (s *Server) History(c *gin.Context) {
	forceRefresh := false
	if v := c.Query("refresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			AbortWithError(c, newValidationError("refresh", "invalid_bool", "refresh must be a boolean"))
			return
		}
		forceRefresh = parsed
	}

	records, err := s.attendance.History(c.Request.Context(), forceRefresh)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// LocationMeta returns checkpoint metadata for one location id.
func (s *Server) LocationMeta(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, newValidationError("id", "missing_id", "location id is required"))
		return
	}

	meta, err := s.attendance.LocationMeta(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": meta})
}

// CacheStats exposes cache occupancy and hit counters.
func (s *Server) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.store.Stats(c.Request.Context())})
}

// SignOut invalidates every cached entry for the current identity.
func (s *Server) SignOut(c *gin.Context) {
	if err := s.attendance.SignOut(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
