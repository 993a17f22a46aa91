package search

import (
	"net/url"
	"sort"
	"strings"

	"github.com/use-agent/forage/models"
)

// postprocess shapes raw upstream results: exclude-domain filtering, URL
// de-duplication, score sort, limit truncation and 1-based positions.
func postprocess(raw []upstreamResult, req *models.SearchRequest) []models.SearchResult {
	seen := make(map[string]struct{}, len(raw))
	kept := make([]upstreamResult, 0, len(raw))

	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if excluded(r.URL, req.ExcludeDomains) {
			continue
		}
		key := canonicalURL(r.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > req.Limit {
		kept = kept[:req.Limit]
	}

	results := make([]models.SearchResult, len(kept))
	for i, r := range kept {
		results[i] = models.SearchResult{
			URL:         strings.TrimSpace(r.URL),
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Content),
			Category:    r.Category,
			Position:    i + 1,
		}
	}
	return results
}

// excluded reports whether the result's hostname matches any excluded
// domain, either exactly or as a parent-domain suffix.
func excluded(rawURL string, excludeDomains []string) bool {
	if len(excludeDomains) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range excludeDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// canonicalURL is the de-duplication key: lowercased, trailing slash
// dropped.
func canonicalURL(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	return strings.TrimSuffix(s, "/")
}
