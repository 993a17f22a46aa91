package cleaner

import (
	"bytes"
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Pre-strip patterns. Removing CSS before parsing keeps style tokens out
// of the DOM and cuts parse cost on style-heavy pages.
var (
	reStyleBlock = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reStyleLink  = regexp.MustCompile(`(?i)<link[^>]*rel=["']?stylesheet["']?[^>]*/?>`)
	reStyleAttr  = regexp.MustCompile(`(?i)\s+style\s*=\s*("[^"]*"|'[^']*')`)
)

// preStrip removes <style> blocks, stylesheet links and inline style
// attributes from raw HTML.
func preStrip(rawHTML string) string {
	s := reStyleBlock.ReplaceAllString(rawHTML, "")
	s = reStyleLink.ReplaceAllString(s, "")
	s = reStyleAttr.ReplaceAllString(s, "")
	return s
}

// whitelist is the LLM-safe element set. Everything else is unwrapped:
// children are promoted in place so text content survives.
var whitelist = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "li": true, "a": true,
	"pre": true, "code": true, "blockquote": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "th": true, "td": true,
	"em": true, "i": true, "strong": true, "b": true,
	"hr": true, "br": true,
	"dl": true, "dt": true, "dd": true,
	"sup": true, "sub": true, "abbr": true, "mark": true,
	"del": true, "ins": true, "details": true, "summary": true,
}

// removalSelectors drop page chrome, media and interactive widgets
// outright. Compiled once; a selector here removes the whole subtree.
var removalSelectors = cascadia.MustCompile(strings.Join([]string{
	"img", "picture", "source", "video", "audio", "iframe", "embed",
	"object", "canvas", "svg", "script", "style", "noscript",
	"form", "button", "input", "select", "textarea", "link",
	"nav", "header", "footer", "aside",
	"[aria-live]",
	`[role="banner"]`, `[role="navigation"]`, `[role="contentinfo"]`,
	`[class*="sidebar"]`, `[class*="ad-"]`, `[class*="advertisement"]`,
	`[class*="social"]`, `[class*="share"]`, `[class*="related"]`,
	`[id*="ad-"]`,
}, ", "))

// sanitizeFragment runs the whitelist pipeline over a content fragment:
// absolute link rewriting, element removal, figure flattening, whitelist
// unwrap and attribute scrubbing. Returns the cleaned inner HTML of the
// fragment's body.
func sanitizeFragment(fragment string, base *nurl.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	rewriteLinks(doc, base)

	for _, n := range doc.FindMatcher(removalSelectors).Nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	flattenFigures(doc)

	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return "", nil
	}
	root := body.Nodes[0]
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapNode(c)
		c = next
	}
	scrubAttributes(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteLinks resolves every <a href> against the base URL. Malformed
// hrefs are left as-is.
func rewriteLinks(doc *goquery.Document, base *nurl.URL) {
	if base == nil {
		return
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		s.SetAttr("href", resolved.String())
	})
}

// flattenFigures replaces each <figure> with its <figcaption> wrapped in a
// paragraph, or removes it when there is no caption.
func flattenFigures(doc *goquery.Document) {
	doc.Find("figure").Each(func(_ int, s *goquery.Selection) {
		caption := s.Find("figcaption").First()
		if caption.Length() == 0 {
			s.Remove()
			return
		}
		inner, err := caption.Html()
		if err != nil || strings.TrimSpace(inner) == "" {
			s.Remove()
			return
		}
		s.ReplaceWithHtml("<p>" + inner + "</p>")
	})
}

// unwrapNode recursively unwraps elements outside the whitelist, promoting
// their children in place. Children are processed before the node itself so
// promoted subtrees are already clean.
func unwrapNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapNode(c)
		c = next
	}
	if n.Type != html.ElementNode || n.Parent == nil {
		return
	}
	if whitelist[strings.ToLower(n.Data)] {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		n.Parent.InsertBefore(c, n)
		c = next
	}
	n.Parent.RemoveChild(n)
}

// scrubAttributes strips every attribute from every element except href on
// anchors.
func scrubAttributes(n *html.Node) {
	if n.Type == html.ElementNode {
		if strings.ToLower(n.Data) == "a" {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if strings.ToLower(a.Key) == "href" {
					kept = append(kept, a)
					break
				}
			}
			n.Attr = kept
		} else {
			n.Attr = nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		scrubAttributes(c)
	}
}

// collectLinks returns the unique absolute hrefs surviving sanitisation, in
// document order.
func collectLinks(sanitized string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}
