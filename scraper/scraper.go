// Package scraper orchestrates one scrape: SSRF preflight, result cache,
// concurrency limiting, the two-tier fetch (plain HTTP first, headless
// browser as fallback) and extraction.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/forage/browser"
	"github.com/use-agent/forage/cache"
	"github.com/use-agent/forage/cleaner"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/limiter"
	"github.com/use-agent/forage/metrics"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/ssrf"
)

// Scraper is the orchestrator shared by the scrape and search handlers.
// Safe for concurrent use.
type Scraper struct {
	cfg     config.ScraperConfig
	guard   *ssrf.Guard
	limiter *limiter.Limiter
	cache   *cache.Cache
	pool    *browser.Pool
	cleaner *cleaner.Cleaner
	fetcher *httpFetcher

	// Fetch tiers, swappable in tests.
	fastFetch   func(ctx context.Context, url string, timeout time.Duration) (*fetchResult, error)
	renderFetch func(ctx context.Context, url string) (*fetchResult, error)

	startTime time.Time
}

// New creates a Scraper. The browser in pool is not launched until the
// first request needs it.
func New(cfg config.ScraperConfig, guard *ssrf.Guard, pool *browser.Pool, resultCache *cache.Cache) *Scraper {
	s := &Scraper{
		cfg:       cfg,
		guard:     guard,
		limiter:   limiter.New(cfg.MaxConcurrency),
		cache:     resultCache,
		pool:      pool,
		cleaner:   cleaner.New(cfg.MaxMarkdownLength),
		fetcher:   &httpFetcher{},
		startTime: time.Now(),
	}
	s.fastFetch = s.fetcher.fetch
	s.renderFetch = s.browserFetch
	return s
}

// Scrape runs the full pipeline for one URL. Identical requests while a
// prior result is fresh are answered from the cache without fetching.
// Failures are never cached.
func (s *Scraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ExtractionResult, error) {
	if serr := s.guard.Preflight(ctx, req.URL); serr != nil {
		metrics.ScrapesTotal.WithLabelValues("client_error").Inc()
		return nil, serr
	}

	key := requestKey(req)
	if res, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return res, nil
	}
	metrics.CacheMisses.Inc()

	timeout := s.clampTimeout(req.TimeoutMs)

	var result *models.ExtractionResult
	err := s.limiter.Do(func() error {
		opCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		raw, fastErr := s.fastFetch(opCtx, req.URL, timeout)
		if fastErr == nil {
			metrics.FastFetchHits.Inc()
		} else {
			slog.Debug("fast fetch unusable, rendering in browser",
				"url", req.URL, "reason", fastErr)
			var renderErr error
			raw, renderErr = s.renderFetch(opCtx, req.URL)
			if renderErr != nil {
				return renderErr
			}
		}

		cleaned, cleanErr := s.cleaner.Clean(raw.HTML, raw.FinalURL,
			cleaner.Options{OnlyMainContent: req.MainContent()})
		if cleanErr != nil {
			return cleanErr
		}

		result = assemble(req, raw, cleaned)
		return nil
	})
	if err != nil {
		outcome := "error"
		var serr *models.ScrapeError
		if errors.As(err, &serr) && serr.IsClientError() {
			outcome = "client_error"
		}
		metrics.ScrapesTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	s.cache.Set(key, result)
	metrics.ScrapesTotal.WithLabelValues("success").Inc()
	return result, nil
}

// assemble builds the API result, attaching optional outputs only when the
// request asked for them.
func assemble(req *models.ScrapeRequest, raw *fetchResult, cleaned *cleaner.Result) *models.ExtractionResult {
	md := cleaned.Metadata
	if raw.StatusCode > 0 {
		md.StatusCode = raw.StatusCode
	}

	result := &models.ExtractionResult{
		Markdown: cleaned.Markdown,
		Metadata: md,
	}
	if req.WantsFormat(models.FormatHTML) {
		result.HTML = cleaned.HTML
	}
	if req.WantsFormat(models.FormatRawHTML) {
		result.RawHTML = raw.HTML
	}
	if req.WantsFormat(models.FormatLinks) {
		result.Links = cleaned.Links
	}
	return result
}

// requestKey fingerprints the request fields that affect output.
func requestKey(req *models.ScrapeRequest) string {
	formats := append([]string(nil), req.Formats...)
	sort.Strings(formats)
	return cache.Key("scrape", map[string]string{
		"url":             req.URL,
		"formats":         strings.Join(formats, ","),
		"onlyMainContent": strconv.FormatBool(req.MainContent()),
	})
}

func (s *Scraper) clampTimeout(timeoutMs int) time.Duration {
	if timeoutMs <= 0 {
		return s.cfg.DefaultTimeout
	}
	timeout := time.Duration(timeoutMs) * time.Millisecond
	if timeout > s.cfg.MaxTimeout {
		return s.cfg.MaxTimeout
	}
	return timeout
}

// Stats is a snapshot of orchestrator state, surfaced by GET /health.
type Stats struct {
	BrowserAlive    bool
	BrowserLaunches int
	Active          int
	Waiting         int
	Uptime          time.Duration
}

// Stats returns the current snapshot.
func (s *Scraper) Stats() Stats {
	st := Stats{
		Active:  s.limiter.Active(),
		Waiting: s.limiter.Waiting(),
		Uptime:  time.Since(s.startTime),
	}
	if s.pool != nil {
		st.BrowserAlive = s.pool.Alive()
		st.BrowserLaunches = s.pool.Launches()
	}
	return st
}

// Close shuts the browser down. Call on graceful shutdown.
func (s *Scraper) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
