package cleaner

import (
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/forage/models"
)

// metaIndex collects all <meta> tags keyed by name|property|itemprop
// (lowercased). Later duplicates do not override the first occurrence.
func metaIndex(doc *goquery.Document) map[string]string {
	index := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		for _, attr := range []string{"name", "property", "itemprop"} {
			if key, ok := s.Attr(attr); ok && key != "" {
				key = strings.ToLower(key)
				if _, exists := index[key]; !exists {
					index[key] = strings.TrimSpace(content)
				}
			}
		}
	})
	return index
}

// extractMetadata builds page metadata from the raw document. articleTitle
// and articleExcerpt come from the readability pass and take precedence
// over meta tags. Status code is filled in by the caller; it defaults to
// 200 when the transport cannot report one.
func extractMetadata(doc *goquery.Document, finalURL *nurl.URL, articleTitle, articleExcerpt string) models.Metadata {
	meta := metaIndex(doc)

	md := models.Metadata{
		StatusCode: 200,
	}
	if finalURL != nil {
		md.SourceURL = finalURL.String()
	}

	md.Title = firstNonEmpty(articleTitle, meta["og:title"], strings.TrimSpace(doc.Find("title").First().Text()))
	md.Description = firstNonEmpty(articleExcerpt, meta["og:description"], meta["description"])

	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		md.Language = lang
	} else {
		md.Language = meta["og:locale"]
	}

	md.Author = firstNonEmpty(meta["author"], meta["article:author"])
	md.SiteName = meta["og:site_name"]
	md.OGType = meta["og:type"]
	md.OGURL = meta["og:url"]
	md.Image = meta["og:image"]
	md.PublishedTime = firstNonEmpty(meta["article:published_time"], meta["datepublished"])
	md.ModifiedTime = firstNonEmpty(meta["article:modified_time"], meta["datemodified"])
	md.Keywords = meta["keywords"]
	md.Generator = meta["generator"]

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		md.CanonicalURL = resolveAgainst(finalURL, href)
	}
	if href, ok := doc.Find(`link[rel~="icon"]`).First().Attr("href"); ok {
		md.Favicon = resolveAgainst(finalURL, href)
	} else if finalURL != nil {
		md.Favicon = resolveAgainst(finalURL, "/favicon.ico")
	}

	return md
}

// resolveAgainst resolves ref against base; on any failure the raw ref is
// returned rather than dropped (favicon resolution is cosmetic).
func resolveAgainst(base *nurl.URL, ref string) string {
	if base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
