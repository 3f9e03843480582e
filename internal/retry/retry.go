package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure RetryFetcher implements model.Fetcher.
var _ model.Fetcher = (*RetryFetcher)(nil)

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before giving up on an organization.
type RetryFetcher struct {
	inner      model.Fetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryFetcher wraps a Fetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryFetcher(inner model.Fetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Fetch fetches the organization, retrying on transient errors. When every
// attempt fails, the largest partial result seen is returned with the last
// error.
func (f *RetryFetcher) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	postings, err := f.inner.Fetch(ctx, org)
	if err == nil || !isRetryable(err) {
		return postings, err
	}

	best := postings
	lastErr := err
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		delay := f.backoffDelay(attempt, lastErr)

		f.logger.Warn("retrying after transient error",
			"company", org.Name,
			"attempt", attempt,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return best, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		postings, err = f.inner.Fetch(ctx, org)
		if err == nil {
			return postings, nil
		}
		if len(postings) > len(best) {
			best = postings
		}
		if !isRetryable(err) {
			return best, err
		}
		lastErr = err
	}

	return best, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := f.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// The caller's context is done; a per-request deadline inside the
	// adapter is still worth another attempt.
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, model.ErrInvalidOrganization) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}

	// Non-HTTP errors (network, DNS, timeouts, truncated bodies) are retryable.
	return true
}
