package scraper

import (
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/forage/ssrf"
)

// blockedResourceTypes are subresource classes a text extraction never
// needs. Scripts and XHR stay allowed so SPA content can render.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage:       {},
	proto.NetworkResourceTypeFont:        {},
	proto.NetworkResourceTypeMedia:       {},
	proto.NetworkResourceTypeStylesheet:  {},
	proto.NetworkResourceTypeTextTrack:   {},
	proto.NetworkResourceTypeEventSource: {},
	proto.NetworkResourceTypeWebSocket:   {},
	proto.NetworkResourceTypeManifest:    {},
	proto.NetworkResourceTypeOther:       {},
}

// reTracker matches analytics and bot-detection endpoints worth dropping
// from every page load.
var reTracker = regexp.MustCompile(`(?i)(google-analytics\.com|googletagmanager\.com|doubleclick\.net|facebook\.net|fbcdn\.net|\banalytics\.|hotjar\.com|segment\.io|sentry\.io|newrelic\.com|datadome\.co|cloudflareinsights\.com)`)

// setupHijack installs a request interceptor that blocks private-network
// subresource requests (the page itself was preflighted, but it can still
// try to pull internal resources), heavy resource types and trackers.
//
// Returns the running HijackRouter so the caller can defer router.Stop().
func setupHijack(page *rod.Page, guard *ssrf.Guard) *rod.HijackRouter {
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType intercepts every request; the
	// decision is made per request.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		reqURL := ctx.Request.URL().String()

		if guard.ShouldBlockRequest(reqURL) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if _, blocked := blockedResourceTypes[ctx.Request.Type()]; blocked {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if reTracker.MatchString(reqURL) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks; it exits when router.Stop() is called.
	go router.Run()

	return router
}
