package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

// fastUserAgents is the pool the fast path draws its User-Agent from.
var fastUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
}

const (
	// fastFetchCeiling caps the fast path regardless of the request
	// timeout; a slow origin goes straight to the browser instead.
	fastFetchCeiling = 5 * time.Second

	// minHTMLBytes is the floor below which a fast-path body is treated
	// as a shell not worth extracting.
	minHTMLBytes = 2000

	maxBodyBytes = 10 * 1024 * 1024
)

// fetchResult is the raw outcome of either fetch path, before cleaning.
type fetchResult struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// httpFetcher performs one plain GET with a Chrome TLS fingerprint (utls).
// It is the cheap first tier; anything it cannot produce a plausible HTML
// document for falls through to the browser.
type httpFetcher struct{}

// fetch retrieves the URL over plain HTTP, following redirects. A non-nil
// error means the fast path is unusable for this URL, not that the scrape
// failed: the caller falls back to the browser.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string, timeout time.Duration) (*fetchResult, error) {
	if timeout <= 0 || timeout > fastFetchCeiling {
		timeout = fastFetchCeiling
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", fastUserAgents[rand.Intn(len(fastUserAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		return nil, fmt.Errorf("httpfetch: non-HTML content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	if len(body) < minHTMLBytes {
		return nil, fmt.Errorf("httpfetch: body too small (%d bytes)", len(body))
	}
	if looksLikeShell(body) {
		return nil, fmt.Errorf("httpfetch: page appears to require JS rendering")
	}

	return &fetchResult{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

var reNoscriptJS = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// looksLikeShell reports whether HTTP-fetched HTML is likely an SPA shell
// that needs JS rendering to show its content.
func looksLikeShell(body []byte) bool {
	if len(visibleText(body)) < 200 {
		return true
	}
	lower := strings.ToLower(string(body))
	if strings.Contains(lower, `<div id="root"></div>`) ||
		strings.Contains(lower, `<div id="app"></div>`) ||
		strings.Contains(lower, `<div id="__next"></div>`) {
		return true
	}
	return reNoscriptJS.MatchString(lower)
}

// visibleText extracts the text inside <body>, skipping script/style/noscript
// content. Heuristic use only.
func visibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
