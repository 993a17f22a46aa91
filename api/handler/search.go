package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/forage/metrics"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/scraper"
	"github.com/use-agent/forage/search"
)

// Search returns the handler for POST /search: query the upstream engine,
// post-process its results and, when scrapeOptions.formats is set, fetch
// and convert each result through the shared scrape pipeline.
func Search(sc *scraper.Scraper, client *search.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:  "invalid_request",
				Detail: err.Error(),
			})
			return
		}
		req.Defaults()

		results, err := client.Search(c.Request.Context(), &req)
		if err != nil {
			metrics.SearchesTotal.WithLabelValues("error").Inc()
			respondError(c, err)
			return
		}
		metrics.SearchesTotal.WithLabelValues("success").Inc()

		if req.ScrapeOptions != nil && len(req.ScrapeOptions.Formats) > 0 {
			scrapeResults(c, sc, results, req.ScrapeOptions)
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Success: true,
			Data:    &models.SearchData{Web: results},
		})
	}
}

// scrapeResults fans the scrape pipeline out over the search hits. The
// pipeline's own limiter bounds real concurrency; a result whose scrape
// fails keeps its snippet and stays in the response.
func scrapeResults(c *gin.Context, sc *scraper.Scraper, results []models.SearchResult, opts *models.SearchScrapeOptions) {
	g, ctx := errgroup.WithContext(c.Request.Context())

	for i := range results {
		g.Go(func() error {
			req := &models.ScrapeRequest{
				URL:             results[i].URL,
				Formats:         opts.Formats,
				OnlyMainContent: opts.OnlyMainContent,
			}
			extracted, err := sc.Scrape(ctx, req)
			if err != nil {
				slog.Warn("search result scrape failed",
					"url", results[i].URL, "error", err)
				return nil
			}
			results[i].Markdown = extracted.Markdown
			results[i].HTML = extracted.HTML
			results[i].RawHTML = extracted.RawHTML
			results[i].Links = extracted.Links
			md := extracted.Metadata
			results[i].Metadata = &md
			return nil
		})
	}
	_ = g.Wait()
}
