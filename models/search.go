package models

// SearchResponse is the envelope for POST /search.
type SearchResponse struct {
	Success bool        `json:"success"`
	Data    *SearchData `json:"data,omitempty"`
}

// SearchData groups results by source. Only "web" is populated today.
type SearchData struct {
	Web []SearchResult `json:"web"`
}

// SearchResult is one post-processed upstream hit, optionally enriched with
// the scraped page when scrapeOptions.formats was non-empty.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	Category    string `json:"category,omitempty"`

	Markdown string    `json:"markdown,omitempty"`
	HTML     string    `json:"html,omitempty"`
	RawHTML  string    `json:"rawHtml,omitempty"`
	Links    []string  `json:"links,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}
