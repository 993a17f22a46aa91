package models

// Output formats a client may request. Markdown is always produced.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatRawHTML  = "rawHtml"
	FormatLinks    = "links"
)

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required, http/https only.
	URL string `json:"url" binding:"required"`

	// Formats selects the optional outputs to attach to the response.
	// Allowed values: "markdown", "html", "rawHtml", "links".
	// Markdown is implicit and always present.
	Formats []string `json:"formats,omitempty"`

	// OnlyMainContent runs the main-content heuristic before sanitising.
	// Defaults to true; set to false to sanitise the whole body.
	OnlyMainContent *bool `json:"onlyMainContent,omitempty"`

	// TimeoutMs is the deadline for the whole scrape in milliseconds.
	// Clamped to the configured maximum.
	TimeoutMs int `json:"timeoutMs,omitempty"`
}

// MainContent resolves the OnlyMainContent default.
func (r *ScrapeRequest) MainContent() bool {
	if r.OnlyMainContent == nil {
		return true
	}
	return *r.OnlyMainContent
}

// WantsFormat reports whether the request asked for the given optional output.
func (r *ScrapeRequest) WantsFormat(format string) bool {
	for _, f := range r.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	// Query is the keyword search to run upstream. Required.
	Query string `json:"query" binding:"required"`

	// Limit caps the number of results (1..20, default 5).
	Limit int `json:"limit,omitempty"`

	// Sources restricts upstream categories (e.g. "web"). Optional.
	Sources []string `json:"sources,omitempty"`

	// IncludeDomains rewrites the query with site: operators.
	IncludeDomains []string `json:"includeDomains,omitempty"`

	// ExcludeDomains drops results whose hostname matches a suffix.
	ExcludeDomains []string `json:"excludeDomains,omitempty"`

	// ScrapeOptions, when Formats is non-empty, fetches and converts each
	// result with the same pipeline as POST /scrape.
	ScrapeOptions *SearchScrapeOptions `json:"scrapeOptions,omitempty"`
}

// SearchScrapeOptions is the per-result scrape configuration for /search.
type SearchScrapeOptions struct {
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent *bool    `json:"onlyMainContent,omitempty"`
}

// Defaults clamps Limit into its allowed range.
func (r *SearchRequest) Defaults() {
	if r.Limit <= 0 {
		r.Limit = 5
	}
	if r.Limit > 20 {
		r.Limit = 20
	}
}
