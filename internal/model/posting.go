package model

import (
	"context"
	"strings"
)

// Posting is the unified representation of a job opening from any ATS.
// JSON keys match the snapshot files written by earlier releases.
type Posting struct {
	ID           string `json:"job_id"`              // "{provider}-{native id}", stable across fetches
	Organization string `json:"company"`             // display name from config, never from the provider
	Title        string `json:"title"`               // raw title text
	Location     string `json:"location,omitempty"`  // raw location text, empty when unknown
	PostedAt     string `json:"posted_at,omitempty"` // ISO-8601 date or timestamp, empty when unknown
	ApplyURL     string `json:"apply_url"`           // may be empty
	Provider     string `json:"provider"`            // adapter kind that produced it
}

// PostedDate returns the YYYY-MM-DD portion of PostedAt, or "" when unknown.
func (p Posting) PostedDate() string {
	if len(p.PostedAt) > 10 {
		return p.PostedAt[:10]
	}
	return p.PostedAt
}

// Organization describes a single company board to poll. It is read-only
// for the duration of a run.
type Organization struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	ID       string `yaml:"id"`  // board token / slug
	URL      string `yaml:"url"` // full endpoint, used by workday
	Enabled  *bool  `yaml:"enabled"`
}

// Identifier returns the provider-specific identifier: the slug when set,
// otherwise the URL.
func (o Organization) Identifier() string {
	if o.ID != "" {
		return o.ID
	}
	return o.URL
}

// IsEnabled reports whether the organization should be polled. Organizations
// without an explicit enabled flag are polled.
func (o Organization) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// ProviderKind returns the normalized provider name.
func (o Organization) ProviderKind() string {
	return strings.ToLower(strings.TrimSpace(o.Provider))
}

// FetchResult is the outcome of one adapter invocation. A failed fetch has
// Err set; a paginated fetch that failed part way keeps the postings it
// already collected alongside the error.
type FetchResult struct {
	Organization Organization
	Postings     []Posting
	Err          error
}

// OK reports whether the fetch completed without error.
func (r FetchResult) OK() bool { return r.Err == nil }

// Partial reports whether the fetch failed after collecting some postings.
func (r FetchResult) Partial() bool { return r.Err != nil && len(r.Postings) > 0 }

// Fetcher fetches and normalizes postings for one organization.
// Implementations may return postings together with an error when only
// part of the board could be read.
type Fetcher interface {
	Fetch(ctx context.Context, org Organization) ([]Posting, error)
}

// Classifier decides whether a posting is relevant.
type Classifier interface {
	Match(p Posting) bool
}

// Notifier delivers newly discovered postings.
type Notifier interface {
	Notify(ctx context.Context, postings []Posting) error
}
