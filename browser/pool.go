// Package browser owns the process-wide headless browser lifecycle.
//
// Exactly one browser process is live at a time. It launches lazily on the
// first acquire, concurrent acquires during a cold start share a single
// launch, and the browser is recycled once it has served its request
// budget. A disconnect recycles state only when the dead browser is still
// the current one.
package browser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// Config controls browser launching and recycling.
type Config struct {
	Headless    bool
	NoSandbox   bool
	BrowserBin  string
	MaxRequests int      // request budget before recycle
	ProxyList   []string // outbound proxies, rotated per context
}

// Handle wraps one running browser process.
type Handle struct {
	Browser *rod.Browser
}

type launchFuture struct {
	done chan struct{}
	err  error
}

// Pool serialises launches and recycling of the single browser.
type Pool struct {
	cfg Config

	mu        sync.Mutex
	cur       *Handle
	served    int
	launching *launchFuture

	launch   func() (*Handle, error)
	watch    func(*Handle)
	launches int // total launches, for tests and metrics

	proxyMu  sync.Mutex
	proxyIdx int
}

// NewPool creates a Pool. The browser is not launched until first Acquire.
func NewPool(cfg Config) *Pool {
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 100
	}
	p := &Pool{cfg: cfg}
	p.launch = p.launchBrowser
	p.watch = p.watchDisconnect
	return p
}

// Acquire returns the live browser, launching or recycling as needed.
// Callers arriving during a launch all observe the same resulting handle.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	for {
		p.mu.Lock()
		if p.cur != nil && p.served >= p.cfg.MaxRequests {
			old := p.cur
			p.cur = nil
			p.served = 0
			slog.Info("browser request budget reached, recycling")
			go closeHandle(old)
		}
		if p.cur != nil {
			p.served++
			h := p.cur
			p.mu.Unlock()
			return h, nil
		}
		if p.launching == nil {
			f := &launchFuture{done: make(chan struct{})}
			p.launching = f
			go p.doLaunch(f)
		}
		f := p.launching
		p.mu.Unlock()

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if f.err != nil {
			return nil, f.err
		}
		// Launched; loop to count this acquire against the fresh budget.
	}
}

func (p *Pool) doLaunch(f *launchFuture) {
	h, err := p.launch()

	p.mu.Lock()
	p.launching = nil
	if err != nil {
		p.mu.Unlock()
		f.err = err
		close(f.done)
		return
	}
	p.cur = h
	p.served = 0
	p.launches++
	watch := p.watch
	p.mu.Unlock()

	if watch != nil {
		go watch(h)
	}
	close(f.done)
}

// handleDisconnect clears state for a dead browser, but only when it is
// still the current one; a stale disconnect must not clear a newer handle.
func (p *Pool) handleDisconnect(h *Handle) {
	p.mu.Lock()
	if p.cur == h {
		p.cur = nil
		p.served = 0
		slog.Warn("browser disconnected, will relaunch on next acquire")
	}
	p.mu.Unlock()
}

// Alive reports whether a browser process is currently live.
func (p *Pool) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur != nil
}

// Launches returns the number of browser launches so far.
func (p *Pool) Launches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.launches
}

// Close shuts the current browser down and resets the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	old := p.cur
	p.cur = nil
	p.served = 0
	p.mu.Unlock()
	if old != nil {
		closeHandle(old)
	}
}

func closeHandle(h *Handle) {
	if h == nil || h.Browser == nil {
		return
	}
	if err := h.Browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}

// launchBrowser starts one headless browser with automation telemetry and
// background work disabled.
func (p *Pool) launchBrowser() (*Handle, error) {
	l := launcher.New().
		Headless(p.cfg.Headless).
		NoSandbox(p.cfg.NoSandbox)

	if p.cfg.BrowserBin != "" {
		l = l.Bin(p.cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-networking"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-sync"))
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("metrics-recording-only"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("mute-audio"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, err
	}
	slog.Info("browser launched", "controlURL", controlURL)
	return &Handle{Browser: b}, nil
}

// watchDisconnect drains the CDP event stream; the channel closes when the
// browser connection dies.
func (p *Pool) watchDisconnect(h *Handle) {
	for range h.Browser.Event() {
	}
	p.handleDisconnect(h)
}

// nextProxy returns the next proxy URL round-robin, or "" when none are
// configured.
func (p *Pool) nextProxy() string {
	if len(p.cfg.ProxyList) == 0 {
		return ""
	}
	p.proxyMu.Lock()
	defer p.proxyMu.Unlock()
	proxy := p.cfg.ProxyList[p.proxyIdx%len(p.cfg.ProxyList)]
	p.proxyIdx++
	return proxy
}
