package ssrf

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/use-agent/forage/models"
)

func stubGuard(ips map[string][]net.IP) *Guard {
	return NewWithLookup(func(_ context.Context, host string) ([]net.IP, error) {
		if addrs, ok := ips[host]; ok {
			return addrs, nil
		}
		return nil, errors.New("no such host")
	})
}

func TestPreflight_Reasons(t *testing.T) {
	g := stubGuard(map[string][]net.IP{
		"public.example.com": {net.ParseIP("93.184.216.34")},
		"evil.example.com":   {net.ParseIP("10.1.2.3")},
	})

	tests := []struct {
		name string
		url  string
		kind string
	}{
		{"plain http ok", "http://public.example.com/page", ""},
		{"https ok", "https://public.example.com/", ""},
		{"unparseable", "http://[::1", models.KindInvalidURL},
		{"ftp", "ftp://public.example.com/file", models.KindUnsupportedProtocol},
		{"file scheme", "file:///etc/passwd", models.KindUnsupportedProtocol},
		{"localhost", "http://localhost/secret", models.KindBlockedLocalhost},
		{"localhost with port", "http://localhost:8080/", models.KindBlockedLocalhost},
		{"ip6-localhost", "http://ip6-localhost/", models.KindBlockedLocalhost},
		{"dot localhost", "http://foo.localhost/", models.KindBlockedLocalhost},
		{"dot local", "http://printer.local/", models.KindBlockedLocalhost},
		{"loopback v4", "http://127.0.0.1/", models.KindBlockedPrivateIP},
		{"rfc1918 10", "http://10.0.0.5/", models.KindBlockedPrivateIP},
		{"rfc1918 172", "http://172.16.0.1/", models.KindBlockedPrivateIP},
		{"rfc1918 192", "http://192.168.1.1/admin", models.KindBlockedPrivateIP},
		{"link local", "http://169.254.169.254/latest/meta-data", models.KindBlockedPrivateIP},
		{"cgnat", "http://100.64.0.1/", models.KindBlockedPrivateIP},
		{"unspecified", "http://0.0.0.0/", models.KindBlockedPrivateIP},
		{"loopback v6", "http://[::1]/", models.KindBlockedPrivateIP},
		{"ula v6", "http://[fd00::1]/", models.KindBlockedPrivateIP},
		{"link local v6", "http://[fe80::1]/", models.KindBlockedPrivateIP},
		{"v4 mapped v6", "http://[::ffff:192.168.0.1]/", models.KindBlockedPrivateIP},
		{"internal suffix", "http://db.internal/", models.KindBlockedPrivateHostname},
		{"corp suffix", "http://wiki.corp/", models.KindBlockedPrivateHostname},
		{"test tld", "http://foo.test/", models.KindBlockedPrivateHostname},
		{"rfc1918 lookalike host", "http://10.0.0.1.sslip.example", models.KindBlockedPrivateHostname},
		{"private resolution", "http://evil.example.com/", models.KindBlockedPrivateRes},
		{"dns failure fail-closed", "http://unknown.example.org/", models.KindBlockedPrivateRes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Preflight(context.Background(), tt.url)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("Preflight(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Preflight(%q) = nil, want kind %q", tt.url, tt.kind)
			}
			if err.Kind != tt.kind {
				t.Errorf("Preflight(%q) kind = %q, want %q", tt.url, err.Kind, tt.kind)
			}
		})
	}
}

func TestPreflight_Deterministic(t *testing.T) {
	g := stubGuard(map[string][]net.IP{
		"public.example.com": {net.ParseIP("93.184.216.34")},
	})
	for i := 0; i < 5; i++ {
		if err := g.Preflight(context.Background(), "http://public.example.com/"); err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
		if err := g.Preflight(context.Background(), "http://192.168.1.1/"); err == nil || err.Kind != models.KindBlockedPrivateIP {
			t.Fatalf("call %d: got %v, want blocked_private_ip", i, err)
		}
	}
}

func TestShouldBlockRequest(t *testing.T) {
	g := New()

	tests := []struct {
		url   string
		block bool
	}{
		{"https://example.com/style.css", false},
		{"http://example.com/img.png", false},
		{"http://127.0.0.1/x.png", true},
		{"http://localhost/api", true},
		{"http://192.168.1.1/pixel.gif", true},
		{"http://[::1]/", true},
		{"http://metadata.internal/computeMetadata", true},
		{"ws://example.com/socket", true}, // non-http scheme
		{"http://%zz", true},              // malformed, fail closed
		{"data:text/html,hi", true},
	}

	for _, tt := range tests {
		if got := g.ShouldBlockRequest(tt.url); got != tt.block {
			t.Errorf("ShouldBlockRequest(%q) = %v, want %v", tt.url, got, tt.block)
		}
	}
}

// The synchronous guard and Preflight must agree on every reason that does
// not need DNS.
func TestGuards_AgreeOnSyncReasons(t *testing.T) {
	g := stubGuard(nil)
	urls := []string{
		"ftp://host/",
		"http://localhost/",
		"http://10.0.0.1/",
		"http://[fe80::1]/",
		"http://router.lan/",
	}
	for _, u := range urls {
		if err := g.Preflight(context.Background(), u); err == nil {
			t.Errorf("Preflight(%q) = nil, want error", u)
		}
		if !g.ShouldBlockRequest(u) {
			t.Errorf("ShouldBlockRequest(%q) = false, want true", u)
		}
	}
}
