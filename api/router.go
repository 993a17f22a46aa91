// Package api wires the HTTP surface together.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/forage/api/handler"
	"github.com/use-agent/forage/api/middleware"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/metrics"
	"github.com/use-agent/forage/scraper"
	"github.com/use-agent/forage/search"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if keys configured) → RateLimit
//
// Health and metrics are intentionally outside auth so probes always work.
func NewRouter(sc *scraper.Scraper, searchClient *search.Client, cfg *config.Config, version string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	if !cfg.Server.TrustProxy {
		_ = r.SetTrustedProxies(nil)
	}

	r.GET("/health", handler.Health(sc, version))
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	protected := r.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(sc))
	protected.POST("/search", handler.Search(sc, searchClient))

	return r
}
