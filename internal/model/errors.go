package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOrganization marks an organization entry that can never be
// fetched as configured, such as a Workday entry without a url.
var ErrInvalidOrganization = errors.New("invalid organization")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status code represents a transient failure.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
