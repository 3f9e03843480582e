package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

func newGreenhouseTestAdapter(srv *httptest.Server) *GreenhouseAdapter {
	a := NewGreenhouseAdapter(testOptions(srv))
	a.baseURL = srv.URL + "/v1/boards"
	return a
}

func TestGreenhouseFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "N/A"},
				"offices": [{"name": "US"}, {"name": "Toronto"}],
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"first_published": "2026-02-10T09:00:00Z",
				"updated_at": "2026-02-13T10:00:00Z"
			},
			{
				"id": 67890,
				"title": "Backend Engineer",
				"location": {"name": "Remote"},
				"offices": [{"name": "Canada Locations"}, {"name": ""}, {"name": "London"}],
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"first_published": "2026-02-11T14:00:00Z",
				"updated_at": ""
			},
			{
				"id": 11111,
				"title": "Full Stack Engineer",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/11111"
			}
		]
	}`
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := newGreenhouseTestAdapter(srv)
	postings, err := a.Fetch(context.Background(), testOrg("Acme Corp", "greenhouse", "acme"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/boards/acme/jobs" || gotQuery != "content=true" {
		t.Errorf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.ID != "greenhouse-12345" {
		t.Errorf("expected ID greenhouse-12345, got %s", p.ID)
	}
	if p.Organization != "Acme Corp" {
		t.Errorf("expected organization Acme Corp, got %s", p.Organization)
	}
	if p.Location != "United States" {
		t.Errorf("expected US office to normalize to United States, got %q", p.Location)
	}
	if p.PostedAt != "2026-02-13T10:00:00Z" {
		t.Errorf("expected the later of first_published/updated_at, got %q", p.PostedAt)
	}
	if p.Provider != "greenhouse" {
		t.Errorf("expected provider greenhouse, got %s", p.Provider)
	}
	if p.ApplyURL != "https://boards.greenhouse.io/acme/jobs/12345" {
		t.Errorf("unexpected apply url %q", p.ApplyURL)
	}

	if postings[1].Location != "Canada Locations, London" {
		t.Errorf("expected joined office names, got %q", postings[1].Location)
	}
	if postings[1].PostedAt != "2026-02-11T14:00:00Z" {
		t.Errorf("expected first_published when updated_at is empty, got %q", postings[1].PostedAt)
	}
	if postings[2].Location != "San Francisco, CA" {
		t.Errorf("expected fallback to location.name, got %q", postings[2].Location)
	}
	if postings[2].PostedAt != "" {
		t.Errorf("expected empty posted_at, got %q", postings[2].PostedAt)
	}
}

func TestGreenhouseFetch_MissingIDIsStable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [{"title": "Software Engineer", "location": {"name": "Austin, TX"}}]}`))
	}))
	defer srv.Close()

	a := newGreenhouseTestAdapter(srv)
	org := testOrg("Acme", "greenhouse", "acme")
	first, err := a.Fetch(context.Background(), org)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Fetch(context.Background(), org)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected the posting to be kept, got %d and %d", len(first), len(second))
	}
	if !strings.HasPrefix(first[0].ID, "greenhouse-") || first[0].ID == "greenhouse-" {
		t.Errorf("unexpected fallback id %q", first[0].ID)
	}
	if first[0].ID != second[0].ID {
		t.Errorf("fallback id changed between fetches: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestGreenhouseFetch_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	postings, err := newGreenhouseTestAdapter(srv).Fetch(context.Background(), testOrg("Empty Co", "greenhouse", "empty-co"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings, got %d", len(postings))
	}
}

func TestGreenhouseFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	_, err := newGreenhouseTestAdapter(srv).Fetch(context.Background(), testOrg("Bad Co", "greenhouse", "bad-co"))
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestGreenhouseFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newGreenhouseTestAdapter(srv).Fetch(context.Background(), testOrg("Fail Co", "greenhouse", "fail-co"))
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestGreenhouseFetch_RequestDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	opts := testOptions(srv)
	opts.Timeout = 50 * time.Millisecond
	a := NewGreenhouseAdapter(opts)
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), testOrg("Slow Co", "greenhouse", "slow"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
