package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBacklog means there is nothing to plan. It is user-correctable.
	ErrEmptyBacklog = errors.New("no tasks to plan")

	// ErrOracleTimeout means the oracle did not answer within the configured bound.
	ErrOracleTimeout = errors.New("plan generation timed out")

	// ErrMalformedCandidate means the oracle output could not be read as a
	// mapping of day to task references.
	ErrMalformedCandidate = errors.New("malformed plan candidate")
)

// GenerationError wraps any other oracle failure.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("plan generation failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("plan generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsRetryable reports whether the caller may simply try the same cycle again.
// Oracle timeouts, oracle failures and unusable candidates are retryable;
// an empty backlog and store failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var genErr *GenerationError
	return errors.Is(err, ErrOracleTimeout) ||
		errors.Is(err, ErrMalformedCandidate) ||
		errors.As(err, &genErr)
}

// malformed wraps ErrMalformedCandidate with detail.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCandidate, fmt.Sprintf(format, args...))
}
