// Package cleaner turns rendered HTML into LLM-friendly Markdown.
//
// The chain: pre-strip CSS, parse against the final URL, readability
// main-content detection (with one relaxed retry and a full-body
// fallback), absolute link rewriting, element removal, whitelist unwrap,
// attribute scrub, Markdown conversion and whitespace tightening.
// Anchors are kept with absolute hrefs so link extraction and citations
// keep working downstream.
package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/forage/models"
)

// Cleaner is the reusable extraction pipeline. The Markdown converter is
// created once and shared across requests (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
	maxLength   int
}

// New creates a Cleaner. maxLength caps Markdown output length in runes;
// zero disables the cap.
func New(maxLength int) *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
		maxLength:   maxLength,
	}
}

// Options controls one Clean invocation.
type Options struct {
	// OnlyMainContent runs the readability heuristic before sanitising;
	// when false the whole <body> is sanitised.
	OnlyMainContent bool
}

// Result is the cleaned output. HTML is the sanitised fragment the
// Markdown was rendered from; Links are the surviving absolute hrefs.
type Result struct {
	Markdown string
	HTML     string
	Links    []string
	Metadata models.Metadata
}

// Clean runs the full pipeline over rendered HTML. finalURL is the URL
// after redirects, used as base for link resolution and metadata.
func (c *Cleaner) Clean(rawHTML, finalURL string, opts Options) (*Result, error) {
	pageURL, err := nurl.Parse(finalURL)
	if err != nil {
		pageURL = nil
	}

	stripped := preStrip(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(stripped))
	if err != nil {
		return nil, models.NewScrapeError(models.KindExtractionFailed,
			"html parsing failed", err)
	}

	var articleTitle, articleExcerpt string
	content := stripped
	if opts.OnlyMainContent && pageURL != nil {
		if article, ok := extractMain(stripped, pageURL); ok {
			content = article.Content
			articleTitle = article.Title
			articleExcerpt = article.Excerpt
		} else {
			// Full-body fallback keeps the pipeline total: a page with no
			// article-like subtree still yields its text.
			if bodyHTML, err := doc.Find("body").Html(); err == nil && strings.TrimSpace(bodyHTML) != "" {
				content = bodyHTML
			}
			slog.Debug("main-content detection found nothing, using full body", "url", finalURL)
		}
	}

	sanitized, err := sanitizeFragment(content, pageURL)
	if err != nil {
		return nil, models.NewScrapeError(models.KindExtractionFailed,
			"sanitisation failed", err)
	}

	markdown, err := toMarkdown(c.mdConverter, sanitized, finalURL)
	if err != nil {
		return nil, models.NewScrapeError(models.KindExtractionFailed,
			"markdown conversion failed", err)
	}
	markdown = truncate(TightenWhitespace(markdown), c.maxLength)

	return &Result{
		Markdown: markdown,
		HTML:     sanitized,
		Links:    collectLinks(sanitized),
		Metadata: extractMetadata(doc, pageURL, articleTitle, articleExcerpt),
	}, nil
}
