package services

import "errors"

// Sentinel errors for the quiz pipeline. Services wrap these with context via
// fmt.Errorf("%w: ..."), and handlers map them to HTTP statuses with errors.Is.
var (
	// ErrInvalidInput marks bad caller input: a non-Wikipedia URL or
	// out-of-range attempt values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing Wikipedia page or an unknown quiz id.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks an upstream fetch that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrFetchFailed marks any other transport-level failure while
	// fetching the page.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMalformedModelOutput marks a model response that is not valid
	// JSON after fence stripping.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrInvalidModelOutput marks a model response that parsed but does
	// not have the required quiz structure.
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrGenerationFailed marks a provider-side failure of the model call.
	// The quiz row created before generation is kept so a retry can resume.
	ErrGenerationFailed = errors.New("quiz generation failed")
)
