package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrLegacyUnfuzzedBytes is returned for descriptors still using the
	// single-line unfuzzedBytes directive.
	ErrLegacyUnfuzzedBytes = errors.New("legacy unfuzzedBytes directive is no longer supported, use the multi-line message format")
	ErrInvalidTestRunFlag  = errors.New("shouldPerformTestRun must be 0 or 1")
	ErrOrphanContinuation  = errors.New("'more' line without a preceding message")
	ErrNoCurrentTarget     = errors.New("no current fuzz target")
	ErrMessageIndex        = errors.New("message index out of range")

	errMissingValue = errors.New("directive without a value")
)

// LineError ties a read failure to the offending descriptor line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
