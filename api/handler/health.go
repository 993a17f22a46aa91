package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/scraper"
)

// Health returns the handler for GET /health. No auth; monitoring probes
// must always reach it. The browser launches lazily, so Browser=false on a
// fresh process is normal.
func Health(sc *scraper.Scraper, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  stats.Uptime.Round(time.Second).String(),
			Browser: stats.BrowserAlive,
			Version: version,
		})
	}
}
