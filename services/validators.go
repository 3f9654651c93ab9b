package services

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateWikipediaURL checks that rawURL points at a Wikipedia page over
// HTTP(S). No normalization is performed; the URL is stored exactly as given.
func ValidateWikipediaURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidInput)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: malformed URL", ErrInvalidInput)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: invalid URL scheme", ErrInvalidInput)
	}

	if !strings.Contains(parsed.Host, "wikipedia.org") {
		return fmt.Errorf("%w: only Wikipedia URLs are allowed", ErrInvalidInput)
	}

	return nil
}
