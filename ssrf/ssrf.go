// Package ssrf classifies outbound URLs as safe or unsafe to fetch.
//
// Two layers of defence: Preflight runs before any work begins and is
// DNS-aware (fail-closed on lookup errors); ShouldBlockRequest is the
// synchronous per-sub-request guard installed on the browser, so in-page
// redirects, <img> references and XHR cannot steer the browser to
// internal targets.
package ssrf

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/forage/models"
)

// LookupFunc resolves a hostname to its addresses. Swappable for tests.
type LookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// Guard validates URLs against the SSRF policy.
type Guard struct {
	lookup LookupFunc
}

// New creates a Guard using the default DNS resolver.
func New() *Guard {
	return &Guard{lookup: func(ctx context.Context, host string) ([]net.IP, error) {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		ips := make([]net.IP, len(addrs))
		for i, a := range addrs {
			ips[i] = a.IP
		}
		return ips, nil
	}}
}

// NewWithLookup creates a Guard with a custom resolver. Used by tests to
// stub DNS.
func NewWithLookup(lookup LookupFunc) *Guard {
	return &Guard{lookup: lookup}
}

// privateHostnameSuffixes are TLDs and suffixes that only resolve inside
// private networks.
var privateHostnameSuffixes = []string{
	".internal", ".intranet", ".home", ".lan", ".corp",
	".test", ".example", ".invalid",
}

// rfc1918Patterns catch private IPv4 ranges appearing inside hostnames
// (e.g. "10.0.0.1.nip.io" style rebinding tricks).
var rfc1918Patterns = []*regexp.Regexp{
	regexp.MustCompile(`^10\.\d{1,3}\.\d{1,3}\.\d{1,3}`),
	regexp.MustCompile(`^172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}`),
	regexp.MustCompile(`^192\.168\.\d{1,3}\.\d{1,3}`),
}

// Preflight checks a URL before any navigation. The DNS step is
// fail-closed: a lookup error is treated as a private resolution.
func (g *Guard) Preflight(ctx context.Context, rawURL string) *models.ScrapeError {
	u, kind := parseAndCheck(rawURL)
	if kind != "" {
		return models.NewScrapeError(kind, "url rejected by ssrf policy", nil)
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		// Literal IP already vetted by parseAndCheck; no DNS needed.
		return nil
	}

	ips, err := g.lookup(ctx, host)
	if err != nil {
		return models.NewScrapeError(models.KindBlockedPrivateRes,
			"hostname resolution failed", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return models.NewScrapeError(models.KindBlockedPrivateRes,
				"hostname resolves to a private address", nil)
		}
	}
	return nil
}

// ShouldBlockRequest is the synchronous guard applied to every sub-request
// the browser issues. It omits the DNS step; malformed URLs are blocked.
func (g *Guard) ShouldBlockRequest(rawURL string) bool {
	_, kind := parseAndCheck(rawURL)
	return kind != ""
}

// parseAndCheck applies the synchronous checks in order. First match wins.
func parseAndCheck(rawURL string) (*url.URL, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, models.KindInvalidURL
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, models.KindUnsupportedProtocol
	}

	host := strings.ToLower(u.Hostname())
	if isLocalhost(host) {
		return nil, models.KindBlockedLocalhost
	}
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return nil, models.KindBlockedPrivateIP
		}
		return u, ""
	}
	if isPrivateHostname(host) {
		return nil, models.KindBlockedPrivateHostname
	}
	return u, ""
}

func isLocalhost(host string) bool {
	switch host {
	case "", "localhost", "ip6-localhost":
		return true
	}
	return strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local")
}

func isPrivateHostname(host string) bool {
	for _, suffix := range privateHostnameSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	for _, re := range rfc1918Patterns {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}

// isPrivateIP classifies an address as unsafe for outbound fetch.
// IPv4-mapped IPv6 addresses are unwrapped and re-checked as IPv4.
func isPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		switch {
		case v4[0] == 0: // "this network"
			return true
		case v4[0] == 100 && v4[1] >= 64 && v4[1] <= 127: // CGNAT
			return true
		case v4[0] == 192 && v4[1] == 0 && v4[2] == 0: // IETF protocol assignments
			return true
		case v4[0] == 198 && (v4[1] == 18 || v4[1] == 19): // benchmarking
			return true
		case v4[0] >= 240: // reserved
			return true
		}
	}
	return false
}
