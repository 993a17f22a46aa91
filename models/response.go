package models

// ScrapeResponse is the envelope for POST /scrape.
type ScrapeResponse struct {
	Success bool              `json:"success"`
	Data    *ExtractionResult `json:"data,omitempty"`
}

// ExtractionResult is the cleaned page produced by the scrape pipeline.
// Markdown is non-empty iff extraction succeeded. The optional fields are
// attached only when the corresponding format was requested.
type ExtractionResult struct {
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata"`
	HTML     string   `json:"html,omitempty"`
	RawHTML  string   `json:"rawHtml,omitempty"`
	Links    []string `json:"links,omitempty"`
}

// Metadata holds page-level information extracted during scraping.
// SourceURL is the URL after all redirects; StatusCode is the final
// HTTP status (defaults to 200 when the transport cannot report one).
type Metadata struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	SourceURL     string `json:"sourceURL"`
	StatusCode    int    `json:"statusCode"`
	Author        string `json:"author,omitempty"`
	SiteName      string `json:"siteName,omitempty"`
	OGType        string `json:"ogType,omitempty"`
	OGURL         string `json:"ogUrl,omitempty"`
	Image         string `json:"image,omitempty"`
	PublishedTime string `json:"publishedTime,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	CanonicalURL  string `json:"canonicalURL,omitempty"`
	Favicon       string `json:"favicon,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Generator     string `json:"generator,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Browser bool   `json:"browser"` // true when a browser process is live
	Version string `json:"version"`
}
