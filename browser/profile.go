package browser

import (
	"fmt"
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// Viewport is the emulated screen size.
type Viewport struct {
	Width  int
	Height int
}

// Profile is one internally consistent browser fingerprint. The platform
// string always agrees with the user-agent family.
type Profile struct {
	UserAgent       string
	Viewport        Viewport
	Locale          string
	Timezone        string
	Platform        string
	Mobile          bool
	DeviceScale     float64
	SecCHUA         string
	SecCHUAPlatform string
	AcceptLanguage  string
}

// profiles is the fixed pool a context's fingerprint is drawn from.
var profiles = []Profile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Viewport:        Viewport{1920, 1080},
		Locale:          "en-US",
		Timezone:        "America/New_York",
		Platform:        "Win32",
		DeviceScale:     1,
		SecCHUA:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecCHUAPlatform: `"Windows"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Viewport:        Viewport{1680, 1050},
		Locale:          "en-US",
		Timezone:        "America/Los_Angeles",
		Platform:        "MacIntel",
		DeviceScale:     2,
		SecCHUA:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecCHUAPlatform: `"macOS"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
	{
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		Viewport:        Viewport{1920, 1080},
		Locale:          "en-GB",
		Timezone:        "Europe/London",
		Platform:        "Linux x86_64",
		DeviceScale:     1,
		SecCHUA:         `"Chromium";v="130", "Google Chrome";v="130", "Not?A_Brand";v="99"`,
		SecCHUAPlatform: `"Linux"`,
		AcceptLanguage:  "en-GB,en;q=0.9",
	},
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		Viewport:        Viewport{1536, 864},
		Locale:          "en-US",
		Timezone:        "America/Chicago",
		Platform:        "Win32",
		DeviceScale:     1.25,
		SecCHUA:         `"Chromium";v="130", "Google Chrome";v="130", "Not?A_Brand";v="99"`,
		SecCHUAPlatform: `"Windows"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
	{
		UserAgent:       "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Viewport:        Viewport{412, 915},
		Locale:          "en-US",
		Timezone:        "America/Denver",
		Platform:        "Linux armv81",
		Mobile:          true,
		DeviceScale:     2.625,
		SecCHUA:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecCHUAPlatform: `"Android"`,
		AcceptLanguage:  "en-US,en;q=0.9",
	},
}

// RandomProfile picks one profile uniformly from the pool.
func RandomProfile() Profile {
	return profiles[rand.Intn(len(profiles))]
}

// NewStealthPage creates a fresh isolated browser context carrying the
// given profile and returns its page plus a cleanup that disposes both.
// Contexts are never reused; an optional outbound proxy is applied per
// context, rotated round-robin from the configured list.
func (p *Pool) NewStealthPage(h *Handle, prof Profile) (*rod.Page, func(), error) {
	ctxRes, err := proto.TargetCreateBrowserContext{
		ProxyServer: p.nextProxy(),
	}.Call(h.Browser)
	if err != nil {
		return nil, nil, err
	}
	contextID := ctxRes.BrowserContextID

	disposeContext := func() {
		_ = proto.TargetDisposeBrowserContext{BrowserContextID: contextID}.Call(h.Browser)
	}

	page, err := h.Browser.Page(proto.TargetCreateTarget{
		URL:              "about:blank",
		BrowserContextID: contextID,
	})
	if err != nil {
		disposeContext()
		return nil, nil, err
	}

	cleanup := func() {
		_ = page.Close()
		disposeContext()
	}

	if err := ApplyProfile(page, prof); err != nil {
		cleanup()
		return nil, nil, err
	}
	return page, cleanup, nil
}

// ApplyProfile configures the page's fingerprint and installs the stealth
// init scripts. Must run before any navigation.
func ApplyProfile(page *rod.Page, prof Profile) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      prof.UserAgent,
		AcceptLanguage: prof.AcceptLanguage,
		Platform:       prof.Platform,
	}); err != nil {
		return err
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             prof.Viewport.Width,
		Height:            prof.Viewport.Height,
		DeviceScaleFactor: prof.DeviceScale,
		Mobile:            prof.Mobile,
	}).Call(page); err != nil {
		return err
	}

	_ = proto.EmulationSetTimezoneOverride{TimezoneID: prof.Timezone}.Call(page)
	_ = proto.EmulationSetLocaleOverride{Locale: prof.Locale}.Call(page)
	_ = proto.EmulationSetTouchEmulationEnabled{Enabled: prof.Mobile}.Call(page)

	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           prof.AcceptLanguage,
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
		"Sec-CH-UA":                 prof.SecCHUA,
		"Sec-CH-UA-Mobile":          secCHUABool(prof.Mobile),
		"Sec-CH-UA-Platform":        prof.SecCHUAPlatform,
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(headers),
	}).Call(page); err != nil {
		return err
	}

	// Stealth base first, then the profile-specific patches on top.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		return err
	}
	if _, err := page.EvalOnNewDocument(PatchScript(prof)); err != nil {
		return err
	}
	return nil
}

func secCHUABool(b bool) string {
	if b {
		return "?1"
	}
	return "?0"
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// webglPairs are plausible vendor/renderer strings for the WebGL patch.
var webglPairs = [][2]string{
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 6600 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

// PatchScript returns the profile-parameterised init script. It runs before
// any page script in every frame and must be idempotent and exception-free
// even when a property is already non-configurable.
func PatchScript(prof Profile) string {
	hw := 4 * (1 + rand.Intn(4))         // 4..16
	mem := []int{4, 8, 16}[rand.Intn(3)] // GB
	webgl := webglPairs[rand.Intn(len(webglPairs))]
	langs := fmt.Sprintf(`["%s", "%s"]`, prof.Locale, prof.Locale[:2])

	return fmt.Sprintf(stealthPatchJS,
		prof.Platform, hw, mem, langs, webgl[0], webgl[1])
}
