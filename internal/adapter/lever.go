package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Categories    leverCategories `json:"categories"`
	CreatedAt     int64           `json:"createdAt"`
	WorkplaceType string          `json:"workplaceType"`
	HostedURL     string          `json:"hostedUrl"`
	ApplyURL      string          `json:"applyUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	baseURL string
	http    requester
}

// NewLeverAdapter creates a new adapter for Lever boards.
func NewLeverAdapter(opts Options) *LeverAdapter {
	return &LeverAdapter{
		baseURL: leverBaseURL,
		http:    opts.requester(),
	}
}

// Fetch retrieves all jobs from the organization's Lever board.
func (a *LeverAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	slug := org.Identifier()
	url := fmt.Sprintf("%s/%s?mode=json", a.baseURL, slug)

	var leverJobs []leverJob
	if err := a.http.getJSON(ctx, url, &leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", slug, err)
	}

	postings := make([]model.Posting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		location := firstNonEmpty(
			lj.Categories.Location,
			strings.Join(lj.Categories.AllLocations, ", "),
			lj.WorkplaceType,
		)
		postings = append(postings, model.Posting{
			ID:           postingID(KindLever, lj.ID, org, lj.Text, location),
			Organization: org.Name,
			Title:        lj.Text,
			Location:     location,
			PostedAt:     unixMilliDate(lj.CreatedAt),
			ApplyURL:     firstNonEmpty(lj.HostedURL, lj.ApplyURL),
			Provider:     KindLever,
		})
	}

	return postings, nil
}
