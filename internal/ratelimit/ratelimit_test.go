package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

func TestWait_SameProvider_EnforcesMinDelay(t *testing.T) {
	limiter := NewProviderLimiter(100*time.Millisecond, nil)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentProviders_NoCrossBlocking(t *testing.T) {
	limiter := NewProviderLimiter(200*time.Millisecond, nil)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// Immediately call for lever, which should not block.
	start := time.Now()
	if err := limiter.Wait(ctx, "lever"); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewProviderLimiter(50*time.Millisecond, nil)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, "workday"); err != nil {
				t.Errorf("wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// Four callers take slots at 0, 50, 100 and 150ms.
	if elapsed := time.Since(start); elapsed < 130*time.Millisecond {
		t.Errorf("expected concurrent callers to be spaced out, finished in %v", elapsed)
	}
}

func TestWait_Overrides(t *testing.T) {
	limiter := NewProviderLimiter(time.Hour, map[string]time.Duration{"lever": 0})
	if d := limiter.DelayFor("lever"); d != 0 {
		t.Errorf("DelayFor(lever) = %v, want 0", d)
	}
	if d := limiter.DelayFor("greenhouse"); d != time.Hour {
		t.Errorf("DelayFor(greenhouse) = %v, want 1h", d)
	}

	ctx := context.Background()
	start := time.Now()
	for range 3 {
		if err := limiter.Wait(ctx, "lever"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected zero-delay override to never block, took %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewProviderLimiter(5*time.Second, nil)

	// First call to seed the provider's next slot.
	if err := limiter.Wait(context.Background(), "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "greenhouse"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingFetcher struct {
	called bool
}

func (f *recordingFetcher) Fetch(_ context.Context, _ model.Organization) ([]model.Posting, error) {
	f.called = true
	return nil, nil
}

func TestRateLimitedFetcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewProviderLimiter(100*time.Millisecond, nil)
	inner := &recordingFetcher{}
	fetcher := NewRateLimitedFetcher(inner, limiter, "greenhouse")
	ctx := context.Background()
	org := model.Organization{Name: "Acme", Provider: "greenhouse", ID: "acme"}

	if _, err := fetcher.Fetch(ctx, org); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher was not called on first fetch")
	}

	inner.called = false

	start := time.Now()
	if _, err := fetcher.Fetch(ctx, org); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher was not called on second fetch")
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}
