package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
)

// handleV1ListObservations returns observations, most recent first.
// With ?village= only villages containing the text (case-insensitive) are returned.
// GET /api/v1/observations
func (s *Server) handleV1ListObservations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var (
		observations []db.Observation
		err          error
	)
	village := strings.TrimSpace(c.Query("village"))
	if village != "" {
		observations, err = s.store.SearchVillage(ctx, village)
	} else {
		observations, err = s.store.List(ctx)
	}
	if err != nil {
		s.storeFailed(c, "list", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list observations"})
		return
	}

	meta := gin.H{"count": len(observations)}
	if village != "" {
		meta["village"] = village
	}
	c.JSON(http.StatusOK, gin.H{
		"data": observations,
		"meta": meta,
	})
}

// handleV1GetObservation returns one observation.
// GET /api/v1/observations/:id
func (s *Server) handleV1GetObservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "observation id must be a positive integer"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	obs, err := s.store.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "observation not found"})
		return
	}
	if err != nil {
		s.storeFailed(c, "get", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": obs,
	})
}

// handleV1Stats returns totals, mean counts and the risk distribution.
// GET /api/v1/stats
func (s *Server) handleV1Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	stats, err := s.store.Statistics(ctx)
	if err != nil {
		s.storeFailed(c, "statistics", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}
