package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

const (
	userAgent             = "JobRadar/1.0"
	defaultRequestTimeout = 15 * time.Second
)

// Options carries the dependencies shared by every adapter.
type Options struct {
	Client  *http.Client
	Timeout time.Duration    // deadline for each outbound call; zero means defaultRequestTimeout
	Now     func() time.Time // reference clock for relative dates; nil means time.Now
}

func (o Options) requester() requester {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return requester{client: client, timeout: timeout}
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// requester performs a single JSON request under its own deadline.
type requester struct {
	client  *http.Client
	timeout time.Duration
}

func (r requester) getJSON(ctx context.Context, url string, out any) error {
	return r.do(ctx, http.MethodGet, url, nil, out)
}

func (r requester) postJSON(ctx context.Context, url string, body, out any) error {
	return r.do(ctx, http.MethodPost, url, body, out)
}

func (r requester) do(ctx context.Context, method, url string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
