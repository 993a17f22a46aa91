package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/forage/browser"
	"github.com/use-agent/forage/models"
)

const (
	domStableWait    = 2 * time.Second
	contentWait      = 3 * time.Second
	domStableSample  = 300 * time.Millisecond
	contentSelectors = `article, main, [role="main"], .post-content, .entry-content, #content`
)

// browserFetch renders the URL in a fresh isolated browser context with a
// random fingerprint profile. The context is disposed on every path.
//
// Lifecycle:
//
//  1. Acquire the shared browser (launches lazily, recycles on budget)
//  2. Fresh context + profile + stealth scripts (before navigation)
//  3. Hijack mount (before navigation)
//  4. Navigate, wait for DOMContentLoaded, best-effort DOM-stable wait
//  5. Dismiss consent overlays, best-effort content-selector wait
//  6. Reject PDFs, capture status / final URL / rendered HTML
func (s *Scraper) browserFetch(ctx context.Context, targetURL string) (*fetchResult, error) {
	h, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.KindNavigationFailed,
			"browser unavailable", err)
	}

	page, cleanup, err := s.pool.NewStealthPage(h, browser.RandomProfile())
	if err != nil {
		return nil, models.NewScrapeError(models.KindNavigationFailed,
			"failed to create browser context", err)
	}
	defer cleanup()

	router := setupHijack(page, s.guard)
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx)

	// Subscribe before navigating so a fast page cannot fire the event
	// before we start listening. Bounded by the request deadline via p.
	waitDCL := p.WaitEvent(&proto.PageDomContentEventFired{})

	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeNavError(err)
	}

	waitDCL()
	if err := ctx.Err(); err != nil {
		return nil, categorizeNavError(err)
	}

	// NOTE: WaitRequestIdle uses the Fetch domain, which conflicts with
	// HijackRequests on Chromium 145+. DOM stability is close enough for
	// post-DCL settling.
	if err := p.Timeout(domStableWait).WaitDOMStable(domStableSample, 0.1); err != nil {
		slog.Debug("DOM did not stabilise, proceeding with current state",
			"url", targetURL, "error", err)
	}

	dismissOverlays(p)

	if _, err := p.Timeout(contentWait).Element(contentSelectors); err != nil {
		slog.Debug("no content selector matched before deadline", "url", targetURL)
	}

	if evalStringOrEmpty(p, `() => document.contentType`) == "application/pdf" {
		return nil, models.NewScrapeError(models.KindUnsupportedContentType,
			"PDF documents are not supported", nil)
	}

	statusCode := navStatusCode(p)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeNavError(err)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	return &fetchResult{
		HTML:       rawHTML,
		FinalURL:   finalURL,
		StatusCode: statusCode,
	}, nil
}

// navStatusCode reads the navigation status from the performance timeline.
// Works without CDP network listeners; defaults to 200 when the browser
// cannot report one.
func navStatusCode(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 200
	}
	if code := res.Value.Int(); code > 0 {
		return code
	}
	return 200
}

// dismissOverlays clicks the most likely consent button, then hides any
// remaining cookie/consent/GDPR overlays. Best-effort; never fails the
// scrape.
func dismissOverlays(p *rod.Page) {
	const js = `() => {
		const buttons = [
			'button[id*="accept"]', 'button[class*="accept"]',
			'button[id*="consent"]', 'button[class*="consent"]',
			'button[id*="agree"]', 'button[class*="agree"]',
			'[aria-label*="accept" i]', '[aria-label*="consent" i]',
		];
		for (const sel of buttons) {
			const el = document.querySelector(sel);
			if (el) { try { el.click(); } catch (e) {} break; }
		}
		const overlays = [
			'[class*="cookie"]', '[id*="cookie"]',
			'[class*="consent"]', '[id*="consent"]',
			'[class*="gdpr"]', '[id*="gdpr"]',
		];
		for (const sel of overlays) {
			document.querySelectorAll(sel).forEach(el => {
				const style = window.getComputedStyle(el);
				if (style.position === 'fixed' || style.position === 'sticky' || style.position === 'absolute') {
					el.style.display = 'none';
				}
			});
		}
		document.documentElement.style.overflow = '';
		if (document.body) document.body.style.overflow = '';
	}`
	_, _ = p.Eval(js)
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeNavError wraps raw browser errors into typed errors the API
// layer can map to HTTP statuses.
func categorizeNavError(err error) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.KindNavigationFailed, "navigation timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.KindNavigationFailed, "request canceled", err)
	default:
		return models.NewScrapeError(models.KindNavigationFailed, "navigation to target URL failed", err)
	}
}
