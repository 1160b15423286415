package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupFailure is returned when the translation page did not yield a
	// detected-language label: navigation failed, the label element was
	// missing, or the element had no text.
	ErrLookupFailure = errors.New("language lookup failed")

	// ErrInvalidTable is returned by EncodingTable.Validate for entries that
	// are not "%XX" literals.
	ErrInvalidTable = errors.New("invalid encoding table entry")
)

// LookupError describes a failed classification.
// It matches ErrLookupFailure with errors.Is and unwraps to the cause.
type LookupError struct {
	// Text is the text that was being classified.
	Text string

	// URL is the translation query URL that was loaded.
	URL string

	// Err is the underlying cause reported by the page.
	Err error
}

// Error implements error.
func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s for %q", ErrLookupFailure, e.Text)
	}
	return fmt.Sprintf("%s for %q: %v", ErrLookupFailure, e.Text, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is reports ErrLookupFailure as a match.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailure
}
