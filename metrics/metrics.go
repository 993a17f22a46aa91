// Package metrics exposes Prometheus counters for the scrape pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScrapesTotal counts scrapes by outcome: "success", "client_error"
	// or "error".
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forage_scrapes_total",
		Help: "Scrape operations by outcome.",
	}, []string{"outcome"})

	// CacheHits counts scrape requests answered from the result cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forage_cache_hits_total",
		Help: "Scrapes served from the result cache.",
	})

	// CacheMisses counts scrape requests that had to do the work.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forage_cache_misses_total",
		Help: "Scrapes not found in the result cache.",
	})

	// FastFetchHits counts scrapes satisfied by the plain-HTTP tier
	// without a browser.
	FastFetchHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forage_fastfetch_hits_total",
		Help: "Scrapes satisfied by the plain HTTP fetcher.",
	})

	// SearchesTotal counts upstream search queries by outcome: "success"
	// or "error".
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forage_searches_total",
		Help: "Upstream search queries by outcome.",
	}, []string{"outcome"})
)

// RegisterBrowserLaunches exposes the browser launch count as a gauge read
// from the pool on each scrape.
func RegisterBrowserLaunches(f func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "forage_browser_launches",
		Help: "Browser processes launched since start.",
	}, f)
}

// Handler returns the Prometheus exposition handler for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
