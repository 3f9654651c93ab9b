package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanWikipediaTextRemovesCitations(t *testing.T) {
	input := "The octopus[1] is a mollusc[23] of the order Octopoda.[456]"

	got := CleanWikipediaText(input, DefaultMaxTextLength)

	assert.Equal(t, "The octopus is a mollusc of the order Octopoda.", got)
	assert.NotContains(t, got, "[")
}

func TestCleanWikipediaTextCollapsesWhitespace(t *testing.T) {
	input := "  Octopuses\t\tare   highly\n\nintelligent  "

	got := CleanWikipediaText(input, DefaultMaxTextLength)

	assert.Equal(t, "Octopuses are highly intelligent", got)
	assert.NotContains(t, got, "  ")
}

func TestCleanWikipediaTextTruncates(t *testing.T) {
	input := strings.Repeat("a", 6000)

	got := CleanWikipediaText(input, DefaultMaxTextLength)

	assert.Len(t, got, DefaultMaxTextLength+len("..."))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestCleanWikipediaTextShortInputUntouched(t *testing.T) {
	got := CleanWikipediaText("short text", DefaultMaxTextLength)

	assert.Equal(t, "short text", got)
	assert.False(t, strings.HasSuffix(got, "..."))
}

func TestCleanWikipediaTextEmptyInput(t *testing.T) {
	assert.Equal(t, "", CleanWikipediaText("", DefaultMaxTextLength))
	assert.Equal(t, "", CleanWikipediaText("   \n\t ", DefaultMaxTextLength))
}

func TestCleanWikipediaTextSummaryCap(t *testing.T) {
	input := strings.Repeat("b", 2000)

	got := CleanWikipediaText(input, SummaryMaxLength)

	assert.Len(t, got, SummaryMaxLength+len("..."))
}
