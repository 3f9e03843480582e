package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amishk599/jobradar/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response. Location is
// either a plain string or an object depending on the board.
type ashbyJob struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Location     json.RawMessage `json:"location"`
	LocationName string          `json:"locationName"`
	JobURL       string          `json:"jobUrl"`
	PublishedAt  string          `json:"publishedAt"`
	UpdatedAt    string          `json:"updatedAt"`
	IsListed     *bool           `json:"isListed"`
}

type ashbyLocation struct {
	City string `json:"city"`
	Name string `json:"name"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	baseURL string
	http    requester
}

// NewAshbyAdapter creates a new adapter for Ashby job boards.
func NewAshbyAdapter(opts Options) *AshbyAdapter {
	return &AshbyAdapter{
		baseURL: ashbyBaseURL,
		http:    opts.requester(),
	}
}

// Fetch retrieves all listed jobs from the organization's Ashby board.
func (a *AshbyAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	token := org.Identifier()
	url := fmt.Sprintf("%s/%s", a.baseURL, token)

	var ashbyResp ashbyResponse
	if err := a.http.getJSON(ctx, url, &ashbyResp); err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", token, err)
	}

	postings := make([]model.Posting, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if aj.IsListed != nil && !*aj.IsListed {
			continue
		}
		location := aj.location()
		postings = append(postings, model.Posting{
			ID:           postingID(KindAshby, aj.ID, org, aj.Title, location),
			Organization: org.Name,
			Title:        aj.Title,
			Location:     location,
			PostedAt:     firstNonEmpty(aj.PublishedAt, aj.UpdatedAt),
			ApplyURL:     aj.JobURL,
			Provider:     KindAshby,
		})
	}

	return postings, nil
}

func (aj ashbyJob) location() string {
	if len(aj.Location) > 0 {
		var s string
		if err := json.Unmarshal(aj.Location, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			var loc ashbyLocation
			if err := json.Unmarshal(aj.Location, &loc); err == nil {
				if v := firstNonEmpty(loc.City, loc.Name); v != "" {
					return v
				}
			}
		}
	}
	return aj.LocationName
}
