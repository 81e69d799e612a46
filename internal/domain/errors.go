package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrThrottled signals that a request exceeded its quota.
	ErrThrottled = errors.New("request was throttled")
	// ErrInvalidQuery signals a query that violates a parameter invariant.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEngine signals a failed round-trip to the search engine.
	ErrEngine = errors.New("search engine error")
)

// EngineError is the transport failure contract of the search executor.
// Status is zero when the failure carries no usable status code
// (connectivity, timeouts).
type EngineError struct {
	Status  int
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", ErrEngine.Error(), e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrEngine.Error(), e.Message)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *EngineError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEngine}
	}
	return []error{ErrEngine, e.Err}
}

// NewEngineError wraps err as an engine failure with an optional status code.
func NewEngineError(status int, err error) error {
	return &EngineError{Status: status, Message: err.Error(), Err: err}
}

// ThrottledError carries the wait time until the bucket resets.
type ThrottledError struct {
	RetryAfterSec int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s: expected available in %d seconds", ErrThrottled.Error(), e.RetryAfterSec)
}

func (e *ThrottledError) Unwrap() error { return ErrThrottled }
