package adapter

import (
	"context"
	"fmt"

	"github.com/amishk599/jobradar/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Location       gemLocation `json:"location"`
	AbsoluteURL    string      `json:"absolute_url"`
	FirstPublished string      `json:"first_published_at"`
	UpdatedAt      string      `json:"updated_at"`
}

type gemLocation struct {
	Name string `json:"name"`
}

// GemAdapter fetches jobs from the Gem public job board API.
type GemAdapter struct {
	baseURL string
	http    requester
}

// NewGemAdapter creates a new adapter for Gem job boards.
func NewGemAdapter(opts Options) *GemAdapter {
	return &GemAdapter{
		baseURL: gemBaseURL,
		http:    opts.requester(),
	}
}

// Fetch retrieves all jobs from the organization's Gem board.
func (a *GemAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	token := org.Identifier()
	url := fmt.Sprintf("%s/%s/job_posts/", a.baseURL, token)

	var gemJobs []gemJob
	if err := a.http.getJSON(ctx, url, &gemJobs); err != nil {
		return nil, fmt.Errorf("gem fetch for %s: %w", token, err)
	}

	postings := make([]model.Posting, 0, len(gemJobs))
	for _, gj := range gemJobs {
		postings = append(postings, model.Posting{
			ID:           postingID(KindGem, gj.ID, org, gj.Title, gj.Location.Name),
			Organization: org.Name,
			Title:        gj.Title,
			Location:     gj.Location.Name,
			PostedAt:     firstNonEmpty(gj.FirstPublished, gj.UpdatedAt),
			ApplyURL:     gj.AbsoluteURL,
			Provider:     KindGem,
		})
	}

	return postings, nil
}
