package client

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Sentinel errors matched by *APIError. Use errors.Is() to check.
var (
	ErrNotFound     = errors.New("not found")
	ErrThrottled    = errors.New("request was throttled")
	ErrInvalidQuery = errors.New("invalid query")
)

// APIError is a non-2xx response.
type APIError struct {
	Status int
	// Message is the "error" or "detail" text of the body.
	Message string
	// Fields holds validation messages per parameter.
	Fields map[string][]string
	// RetryAfter is set on throttled responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
			parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
		}
		return fmt.Sprintf("ccdb: %d: %s", e.Status, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("ccdb: %d: %s", e.Status, e.Message)
}

// Is maps HTTP statuses onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrThrottled:
		return e.Status == http.StatusTooManyRequests
	case ErrInvalidQuery:
		return e.Status == http.StatusBadRequest && len(e.Fields) > 0
	}
	return false
}
