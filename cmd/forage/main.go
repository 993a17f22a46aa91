package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/forage/api"
	"github.com/use-agent/forage/browser"
	"github.com/use-agent/forage/cache"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/metrics"
	"github.com/use-agent/forage/scraper"
	"github.com/use-agent/forage/search"
	"github.com/use-agent/forage/ssrf"
)

const version = "1.0.0"

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("forage starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"workers", cfg.Server.Workers,
		"maxConcurrency", cfg.Scraper.MaxConcurrency,
	)

	// ── 3. Assemble the scrape pipeline ─────────────────────────────
	// The browser launches lazily on the first request that needs it.
	pool := browser.NewPool(browser.Config{
		Headless:    cfg.Browser.Headless,
		NoSandbox:   cfg.Browser.NoSandbox,
		BrowserBin:  cfg.Browser.BrowserBin,
		MaxRequests: cfg.Browser.MaxRequests,
		ProxyList:   cfg.Browser.ProxyList,
	})
	resultCache := cache.New(cfg.Cache.MaxItems, cfg.Cache.TTL)
	sc := scraper.New(cfg.Scraper, ssrf.New(), pool, resultCache)
	defer sc.Close()

	if cfg.Metrics.Enabled {
		metrics.RegisterBrowserLaunches(func() float64 {
			return float64(pool.Launches())
		})
	}

	// ── 4. Search upstream ──────────────────────────────────────────
	searchClient := search.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout)
	if !searchClient.Enabled() {
		slog.Warn("no SearxNG upstream configured, POST /search will return errors")
	}

	// ── 5. Router and HTTP server ───────────────────────────────────
	router := api.NewRouter(sc, searchClient, cfg, version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close() runs via defer and shuts the browser down.
	slog.Info("forage stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
