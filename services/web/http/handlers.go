package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleIndex renders the live map page
// GET /
func (s *Server) handleIndex(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	pos, inside, err := s.locate(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to retrieve ISS location")
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"CurrentTime":    s.now().Format("2006-01-02 15:04:05"),
		"Latitude":       pos.Latitude,
		"Longitude":      pos.Longitude,
		"InRegion":       inside,
		"RegionName":     s.box.Name,
		"LatMin":         s.box.LatMin,
		"LatMax":         s.box.LatMax,
		"LonMin":         s.box.LonMin,
		"LonMax":         s.box.LonMax,
		"RefreshSeconds": s.cfg.RefreshSeconds,
		"PollMillis":     s.cfg.PollSeconds * 1000,
	})
}
