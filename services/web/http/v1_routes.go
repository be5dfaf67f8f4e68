package http

import "github.com/gin-gonic/gin"

// registerV1Routes sets up the JSON API
// Groups: /api/v1
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header
	{
		v1.GET("/position", s.handleV1Position)
		v1.GET("/dispatches", s.handleV1Dispatches)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
