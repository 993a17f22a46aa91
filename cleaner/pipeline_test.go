package cleaner

import (
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Fallback Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description of the page">
<meta property="og:site_name" content="Example News">
<meta property="og:type" content="article">
<meta property="og:url" content="https://example.com/story">
<meta property="og:image" content="/lead.jpg">
<meta name="author" content="Jane Writer">
<meta name="keywords" content="go, scraping">
<meta name="generator" content="Hugo 0.120">
<meta property="article:published_time" content="2024-03-01T10:00:00Z">
<link rel="canonical" href="/story">
<link rel="icon" href="/icon.svg">
<style>p { margin: 0; }</style>
</head>
<body>
<nav><a href="/home">home</a><a href="/about">about</a></nav>
<article>
<h1>The Article Heading</h1>
<p>This is the first paragraph of the article body. It contains enough text
to be recognised as real content by the extraction heuristic, including a
<a href="/related-story">link to a related story</a> and some more prose to
pad things out beyond the minimum thresholds that readability applies when
scoring candidate subtrees for text density and punctuation weight.</p>
<p>The second paragraph continues the discussion at length, adding further
sentences so the scoring pass has a clearly dominant candidate. It talks
about scraping, sanitisation, and converting documents into Markdown with
stable, deterministic output, which is what downstream language models
consume best.</p>
<figure><img src="/chart.png"><figcaption>A chart caption</figcaption></figure>
</article>
<footer>© Example News</footer>
<script>trackPageView()</script>
</body>
</html>`

func TestClean_ArticlePage(t *testing.T) {
	c := New(0)

	res, err := c.Clean(articlePage, "https://example.com/story", Options{OnlyMainContent: true})
	if err != nil {
		t.Fatal(err)
	}

	if res.Markdown == "" {
		t.Fatal("markdown empty on successful extraction")
	}
	if !strings.Contains(res.Markdown, "first paragraph of the article body") {
		t.Errorf("article text missing from markdown:\n%s", res.Markdown)
	}
	for _, banned := range []string{"<script", "<style", "<img", "trackPageView"} {
		if strings.Contains(res.Markdown, banned) {
			t.Errorf("markdown contains %q", banned)
		}
	}
	if strings.Contains(res.Markdown, "home") && strings.Contains(res.Markdown, "about") {
		t.Errorf("navigation chrome leaked into markdown:\n%s", res.Markdown)
	}

	found := false
	for _, l := range res.Links {
		if l == "https://example.com/related-story" {
			found = true
		}
		if !strings.HasPrefix(l, "http") {
			t.Errorf("non-absolute link %q survived", l)
		}
	}
	if !found {
		t.Errorf("absolute in-article link missing from Links: %v", res.Links)
	}
}

func TestClean_Metadata(t *testing.T) {
	c := New(0)
	res, err := c.Clean(articlePage, "https://example.com/story", Options{OnlyMainContent: true})
	if err != nil {
		t.Fatal(err)
	}

	md := res.Metadata
	if md.SourceURL != "https://example.com/story" {
		t.Errorf("SourceURL = %q", md.SourceURL)
	}
	if md.StatusCode != 200 {
		t.Errorf("StatusCode default = %d, want 200", md.StatusCode)
	}
	if md.Title == "" {
		t.Error("Title empty")
	}
	if md.Language != "en" {
		t.Errorf("Language = %q, want en", md.Language)
	}
	if md.SiteName != "Example News" {
		t.Errorf("SiteName = %q", md.SiteName)
	}
	if md.OGType != "article" {
		t.Errorf("OGType = %q", md.OGType)
	}
	if md.Author != "Jane Writer" {
		t.Errorf("Author = %q", md.Author)
	}
	if md.PublishedTime != "2024-03-01T10:00:00Z" {
		t.Errorf("PublishedTime = %q", md.PublishedTime)
	}
	if md.CanonicalURL != "https://example.com/story" {
		t.Errorf("CanonicalURL = %q", md.CanonicalURL)
	}
	if md.Favicon != "https://example.com/icon.svg" {
		t.Errorf("Favicon = %q", md.Favicon)
	}
	if md.Keywords != "go, scraping" {
		t.Errorf("Keywords = %q", md.Keywords)
	}
	if md.Generator != "Hugo 0.120" {
		t.Errorf("Generator = %q", md.Generator)
	}
}

func TestClean_FullBodyWhenMainContentOff(t *testing.T) {
	c := New(0)
	res, err := c.Clean(articlePage, "https://example.com/story", Options{OnlyMainContent: false})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Markdown, "first paragraph") {
		t.Errorf("body content missing:\n%s", res.Markdown)
	}
}

func TestClean_FallbackOnBareBody(t *testing.T) {
	// Too little content for readability; the full-body fallback must
	// still produce markdown.
	c := New(0)
	res, err := c.Clean(`<html><body><p>tiny</p></body></html>`, "https://example.com/x", Options{OnlyMainContent: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Markdown, "tiny") {
		t.Errorf("fallback lost body text: %q", res.Markdown)
	}
}

func TestClean_MaxLength(t *testing.T) {
	c := New(40)
	res, err := c.Clean(articlePage, "https://example.com/story", Options{OnlyMainContent: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(res.Markdown, truncationMarker) {
		t.Errorf("long markdown not truncated: %q", res.Markdown)
	}
}
