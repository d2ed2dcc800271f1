package http

import "github.com/gin-gonic/gin"

const apiVersion = "v1"

// registerV1Routes sets up the read-only v1 API.
// Groups: /api/v1/observations, /api/v1/stats
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	observations := v1.Group("/observations")
	{
		observations.GET("", s.handleV1ListObservations)
		observations.GET("/:id", s.handleV1GetObservation)
	}

	v1.GET("/stats", s.handleV1Stats)
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", apiVersion)
		c.Next()
	}
}
