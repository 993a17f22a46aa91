// Package search queries a SearxNG-style meta-search engine and shapes its
// results for the API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/forage/models"
)

// Client talks to one SearxNG instance's /search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. baseURL is the instance root, e.g.
// "http://searxng:8080"; timeout bounds one upstream query.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an upstream is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// upstreamResult is one raw entry from the SearxNG JSON format.
type upstreamResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Engine        string  `json:"engine"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"publishedDate"`
	Category      string  `json:"category"`
}

type upstreamResponse struct {
	Results []upstreamResult `json:"results"`
}

// Search runs one upstream query and returns the post-processed results:
// include-domains rewritten into the query, exclude-domains filtered,
// duplicates dropped, sorted by score, truncated to req.Limit and assigned
// 1-based positions.
func (c *Client) Search(ctx context.Context, req *models.SearchRequest) ([]models.SearchResult, error) {
	if !c.Enabled() {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			"no search upstream configured", nil)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			"invalid search upstream url", err)
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}

	q := u.Query()
	q.Set("q", rewriteQuery(req.Query, req.IncludeDomains))
	q.Set("format", "json")
	if len(req.Sources) > 0 {
		q.Set("categories", strings.Join(req.Sources, ","))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			"failed to build search request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			"search upstream unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			fmt.Sprintf("search upstream returned HTTP %d", resp.StatusCode), nil)
	}

	var upstream upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return nil, models.NewScrapeError(models.KindUpstreamSearchError,
			"failed to decode search response", err)
	}

	return postprocess(upstream.Results, req), nil
}

// rewriteQuery appends site: operators for the include-domains filter.
func rewriteQuery(query string, includeDomains []string) string {
	if len(includeDomains) == 0 {
		return query
	}
	sites := make([]string, 0, len(includeDomains))
	for _, d := range includeDomains {
		if d = strings.TrimSpace(d); d != "" {
			sites = append(sites, "site:"+d)
		}
	}
	if len(sites) == 0 {
		return query
	}
	return query + " " + strings.Join(sites, " OR ")
}
