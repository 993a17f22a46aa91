package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// extractMain runs the readability heuristic over the pre-stripped HTML.
// If the strict pass finds nothing it retries once with relaxed thresholds
// (lower char floor, wider candidate breadth). Returns ok=false when both
// passes fail and the caller should fall back to the full body.
func extractMain(rawHTML string, pageURL *nurl.URL) (readability.Article, bool) {
	strict := readability.NewParser()
	if article, err := strict.Parse(strings.NewReader(rawHTML), pageURL); err == nil && hasContent(article) {
		return article, true
	}

	relaxed := readability.NewParser()
	relaxed.CharThresholds = 100
	relaxed.NTopCandidates = 10
	article, err := relaxed.Parse(strings.NewReader(rawHTML), pageURL)
	if err != nil || !hasContent(article) {
		if err != nil {
			slog.Debug("readability failed, using full body", "url", pageURL.String(), "error", err)
		}
		return readability.Article{}, false
	}
	return article, true
}

func hasContent(a readability.Article) bool {
	return strings.TrimSpace(a.TextContent) != "" && strings.TrimSpace(a.Content) != ""
}
