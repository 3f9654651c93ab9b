package utils

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxTextLength caps the article body passed to the model.
	DefaultMaxTextLength = 5000
	// SummaryMaxLength caps the cleaned first-paragraph summary.
	SummaryMaxLength = 1000

	ellipsis = "..."
)

var (
	citationPattern   = regexp.MustCompile(`\[\d+\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanWikipediaText strips bracketed citation markers like [12], collapses
// whitespace runs into single spaces, trims, and truncates to maxLength with
// a trailing ellipsis. Deterministic and total over any input.
func CleanWikipediaText(text string, maxLength int) string {
	text = citationPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	if maxLength > 0 && len(text) > maxLength {
		text = text[:maxLength] + ellipsis
	}

	return text
}
