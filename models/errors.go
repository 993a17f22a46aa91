package models

import "fmt"

// Error kinds used in API responses and internal error handling.
// These names are part of the public API surface and must stay stable.
const (
	KindInvalidURL             = "invalid_url"
	KindUnsupportedProtocol    = "unsupported_protocol"
	KindBlockedLocalhost       = "blocked_localhost"
	KindBlockedPrivateIP       = "blocked_private_ip"
	KindBlockedPrivateHostname = "blocked_private_hostname"
	KindBlockedPrivateRes      = "blocked_private_resolution"
	KindUnsupportedContentType = "unsupported_content_type"
	KindNavigationFailed       = "navigation_failed"
	KindExtractionFailed       = "extraction_failed"
	KindUpstreamSearchError    = "upstream_search_error"
)

// ScrapeError is the internal error type carrying a stable error kind.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Kind    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(kind, message string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, Message: message, Err: err}
}

// IsClientError reports whether the kind describes a request that can never
// succeed (retrying will not help).
func (e *ScrapeError) IsClientError() bool {
	switch e.Kind {
	case KindInvalidURL, KindUnsupportedProtocol,
		KindBlockedLocalhost, KindBlockedPrivateIP,
		KindBlockedPrivateHostname, KindBlockedPrivateRes,
		KindUnsupportedContentType:
		return true
	}
	return false
}

// ErrorResponse is the JSON error body: {"error": kind, "detail": "..."}.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ToResponse converts an internal error to the API-facing error body.
func (e *ScrapeError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Kind, Detail: e.Message}
}
