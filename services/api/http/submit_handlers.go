package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
)

// handleSubmit stores one observation and answers with the computed tier.
// POST /submit, POST /api/submit
func (s *Server) handleSubmit(c *gin.Context) {
	var payload submission
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid JSON payload"})
		return
	}

	in, err := payload.toNewObservation()
	if err != nil {
		var rej *rejection
		if errors.As(err, &rej) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": rej.msg})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid submission"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	obs, err := s.store.Create(ctx, in)
	if err != nil {
		s.storeFailed(c, "create", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error submitting data"})
		return
	}

	s.metrics.ObservationsCreated.WithLabelValues(string(obs.Risk)).Inc()
	s.logger.Info("observation stored", "id", obs.ID, "village", obs.Village, "risk", obs.Risk)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Data submitted successfully",
		"risk":    obs.Risk,
		"id":      obs.ID,
	})
}

// handleListData returns every observation, most recent first. Failures
// degrade to an empty array with a 500 status so the dashboard keeps
// rendering; the status code is the only signal that the list is not real.
// GET /data, GET /api/data
func (s *Server) handleListData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	observations, err := s.store.List(ctx)
	if err != nil {
		s.storeFailed(c, "list", err)
		c.JSON(http.StatusInternalServerError, []db.Observation{})
		return
	}

	c.JSON(http.StatusOK, observations)
}
