package cleaner

import (
	nurl "net/url"
	"strings"
	"testing"
)

func mustURL(t *testing.T, raw string) *nurl.URL {
	t.Helper()
	u, err := nurl.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestSanitizeFragment_WhitelistClosure(t *testing.T) {
	in := `<div class="wrap">
		<script>alert(1)</script>
		<style>.x{color:red}</style>
		<img src="/pic.png" alt="pic">
		<iframe src="https://ads.example/frame"></iframe>
		<p onclick="evil()" data-track="1">Hello <span class="hl">world</span></p>
		<section><h2 id="t">Title</h2></section>
	</div>`

	out, err := sanitizeFragment(in, mustURL(t, "https://example.com/a/b"))
	if err != nil {
		t.Fatal(err)
	}

	for _, banned := range []string{"<script", "<style", "<img", "<iframe", "<div", "<span", "<section", "onclick", "data-track", "class=", "id="} {
		if strings.Contains(out, banned) {
			t.Errorf("sanitised output contains %q:\n%s", banned, out)
		}
	}
	if !strings.Contains(out, "Hello world") {
		t.Errorf("text content of unwrapped elements lost:\n%s", out)
	}
	if !strings.Contains(out, "<h2>Title</h2>") {
		t.Errorf("whitelisted heading lost or mangled:\n%s", out)
	}
}

func TestSanitizeFragment_AbsoluteLinks(t *testing.T) {
	in := `<p>
		<a href="/docs/page">rel</a>
		<a href="other.html">sibling</a>
		<a href="https://other.example/x">abs</a>
		<a href="http://%zz">broken</a>
	</p>`

	out, err := sanitizeFragment(in, mustURL(t, "https://example.com/a/b"))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`href="https://example.com/docs/page"`,
		`href="https://example.com/a/other.html"`,
		`href="https://other.example/x"`,
		`href="http://%zz"`, // malformed left as-is
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestSanitizeFragment_AnchorKeepsOnlyHref(t *testing.T) {
	in := `<p><a href="/x" target="_blank" rel="nofollow" class="link">go</a></p>`
	out, err := sanitizeFragment(in, mustURL(t, "https://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "target=") || strings.Contains(out, "rel=") || strings.Contains(out, "class=") {
		t.Errorf("anchor kept a non-href attribute:\n%s", out)
	}
	if !strings.Contains(out, `href="https://example.com/x"`) {
		t.Errorf("anchor lost its href:\n%s", out)
	}
}

func TestSanitizeFragment_RemovesChrome(t *testing.T) {
	in := `<nav><a href="/home">home</a></nav>
		<header>site header</header>
		<p>the article</p>
		<aside class="sidebar">ads</aside>
		<footer>copyright</footer>
		<div class="social-share">share me</div>`

	out, err := sanitizeFragment(in, mustURL(t, "https://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	for _, gone := range []string{"home", "site header", "ads", "copyright", "share me"} {
		if strings.Contains(out, gone) {
			t.Errorf("chrome element content %q survived:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, "the article") {
		t.Errorf("article content removed:\n%s", out)
	}
}

func TestSanitizeFragment_FigureBecomesCaption(t *testing.T) {
	in := `<figure><img src="/chart.png"><figcaption>Quarterly revenue</figcaption></figure>
		<figure><img src="/plain.png"></figure>`

	out, err := sanitizeFragment(in, mustURL(t, "https://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<p>Quarterly revenue</p>") {
		t.Errorf("figcaption not promoted to paragraph:\n%s", out)
	}
	if strings.Contains(out, "plain.png") || strings.Contains(out, "<img") {
		t.Errorf("captionless figure or image survived:\n%s", out)
	}
}

func TestPreStrip(t *testing.T) {
	in := `<html><head>
		<style>body { color: red; }</style>
		<link rel="stylesheet" href="/main.css">
		<link rel="canonical" href="/canon">
		</head><body><p style="font-size:12px">text</p></body></html>`

	out := preStrip(in)
	if strings.Contains(out, "color: red") {
		t.Error("style block survived pre-strip")
	}
	if strings.Contains(out, "main.css") {
		t.Error("stylesheet link survived pre-strip")
	}
	if !strings.Contains(out, "/canon") {
		t.Error("non-stylesheet link was wrongly stripped")
	}
	if strings.Contains(out, "font-size") {
		t.Error("inline style attribute survived pre-strip")
	}
	if !strings.Contains(out, "<p>text</p>") && !strings.Contains(out, "<p >text</p>") {
		t.Errorf("paragraph mangled by pre-strip:\n%s", out)
	}
}

func TestCollectLinks(t *testing.T) {
	sanitized := `<p><a href="https://a.example/1">one</a>
		<a href="https://a.example/2">two</a>
		<a href="https://a.example/1">dup</a></p>`
	links := collectLinks(sanitized)
	want := []string{"https://a.example/1", "https://a.example/2"}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}
