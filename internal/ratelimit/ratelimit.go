package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// ProviderLimiter enforces a minimum delay between requests to the same
// provider. It is shared by every worker, so concurrent callers for one
// provider are spaced out rather than released together.
type ProviderLimiter struct {
	mu        sync.Mutex
	next      map[string]time.Time // earliest start of the next request, per provider
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewProviderLimiter creates a limiter with a default delay and optional
// per-provider overrides.
func NewProviderLimiter(minDelay time.Duration, overrides map[string]time.Duration) *ProviderLimiter {
	return &ProviderLimiter{
		next:      make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

// DelayFor returns the delay applied to provider.
func (r *ProviderLimiter) DelayFor(provider string) time.Duration {
	if d, ok := r.overrides[provider]; ok {
		return d
	}
	return r.minDelay
}

// Wait reserves the next slot for provider and blocks until it arrives.
// Returns an error if the context is cancelled while waiting.
func (r *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	delay := r.DelayFor(provider)
	if delay <= 0 {
		return nil
	}

	r.mu.Lock()
	now := time.Now()
	slot := now
	if next, ok := r.next[provider]; ok && next.After(now) {
		slot = next
	}
	r.next[provider] = slot.Add(delay)
	r.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", provider, ctx.Err())
	case <-t.C:
		return nil
	}
}

// Ensure RateLimitedFetcher implements model.Fetcher.
var _ model.Fetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher is a decorator that waits for the provider's slot
// before delegating to the wrapped Fetcher.
type RateLimitedFetcher struct {
	inner    model.Fetcher
	limiter  *ProviderLimiter
	provider string
}

// NewRateLimitedFetcher wraps a Fetcher with provider-level rate limiting.
// All fetchers targeting the same provider should share the same limiter.
func NewRateLimitedFetcher(inner model.Fetcher, limiter *ProviderLimiter, provider string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:    inner,
		limiter:  limiter,
		provider: provider,
	}
}

// Fetch waits for the rate limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	if err := f.limiter.Wait(ctx, f.provider); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, org)
}
