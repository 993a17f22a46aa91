// Package handler contains the gin handlers for the public API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/scraper"
)

// Scrape returns the handler for POST /scrape: validate, run the scrape
// pipeline, respond with the extraction result.
func Scrape(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:  "invalid_request",
				Detail: err.Error(),
			})
			return
		}

		result, err := sc.Scrape(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			Data:    result,
		})
	}
}

// respondError maps an error to its HTTP status and writes the structured
// error body {"error": kind, "detail": ...}.
func respondError(c *gin.Context, err error) {
	var serr *models.ScrapeError
	if !errors.As(err, &serr) {
		serr = models.NewScrapeError(models.KindExtractionFailed, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(serr), serr.ToResponse())
}

// mapErrorToStatus translates error kinds to HTTP status codes. Requests
// that can never succeed are 422; upstream search failure is 502;
// everything else is an internal 500.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch {
	case e.IsClientError():
		return http.StatusUnprocessableEntity // 422
	case e.Kind == models.KindUpstreamSearchError:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
