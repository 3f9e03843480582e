package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const userAgent = "JobRadar/1.0"

// webhook posts JSON payloads to an incoming-webhook URL and retries once
// when the receiver answers 429.
type webhook struct {
	name       string
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func (w webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", w.name, err)
	}

	status, retryAfter, err := w.send(ctx, body)
	if err != nil {
		return fmt.Errorf("post to %s: %w", w.name, err)
	}

	if status == http.StatusTooManyRequests {
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		w.logger.Warn(w.name+" rate limited, retrying", "retry_after", retryAfter)
		if err := sleep(ctx, retryAfter); err != nil {
			return err
		}
		status, _, err = w.send(ctx, body)
		if err != nil {
			return fmt.Errorf("post to %s (retry): %w", w.name, err)
		}
		if !accepted(status) {
			return fmt.Errorf("%s returned %d on retry", w.name, status)
		}
		return nil
	}

	if !accepted(status) {
		return fmt.Errorf("%s returned %d", w.name, status)
	}
	return nil
}

func (w webhook) send(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// accepted covers Slack's 200 and Discord's 204.
func accepted(status int) bool {
	return status == http.StatusOK || status == http.StatusNoContent
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
