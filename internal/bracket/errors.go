package bracket

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every construction failure.
	ErrInvalidConfig = errors.New("invalid bracket configuration")

	ErrMatchNotFound  = errors.New("match not found")
	ErrNotPlayable    = errors.New("cannot score a match with empty slots")
	ErrInvalidScore   = errors.New("scores must be a finite numeric array of the match size")
	ErrUnsafeRescore  = errors.New("cannot re-score a match whose result has been used")
	ErrAmbiguousScore = errors.New("scores must unambiguously decide who advances")
	ErrDraw           = errors.New("duel matches cannot end in a draw")
)

// ValidationError is an expected rejection of a score. It is returned, never
// panicked, and callers treat it as a normal outcome of interactive play.
type ValidationError struct {
	ID     ID
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func reject(id ID, err error, format string, args ...any) *ValidationError {
	reason := err.Error()
	if format != "" {
		reason = fmt.Sprintf(format, args...)
	}
	return &ValidationError{ID: id, Reason: reason, Err: err}
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
