package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

const (
	greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
	unitedStates      = "United States"
)

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	Offices        []greenhouseOffice `json:"offices"`
	AbsoluteURL    string             `json:"absolute_url"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseOffice struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	baseURL string
	http    requester
}

// NewGreenhouseAdapter creates a new adapter for Greenhouse boards.
func NewGreenhouseAdapter(opts Options) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		baseURL: greenhouseBaseURL,
		http:    opts.requester(),
	}
}

// Fetch retrieves all jobs from the organization's Greenhouse board.
func (a *GreenhouseAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	token := org.Identifier()
	// content=true is what makes the API include offices.
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, token)

	var ghResp greenhouseResponse
	if err := a.http.getJSON(ctx, url, &ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	postings := make([]model.Posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		location := gj.location()
		nativeID := ""
		if gj.ID != 0 {
			nativeID = strconv.FormatInt(gj.ID, 10)
		}
		postings = append(postings, model.Posting{
			ID:           postingID(KindGreenhouse, nativeID, org, gj.Title, location),
			Organization: org.Name,
			Title:        gj.Title,
			Location:     location,
			PostedAt:     max(gj.FirstPublished, gj.UpdatedAt),
			ApplyURL:     gj.AbsoluteURL,
			Provider:     KindGreenhouse,
		})
	}

	return postings, nil
}

// location prefers offices over location.name: the free-text location is
// frequently a placeholder like "N/A", while offices carry the region.
func (gj greenhouseJob) location() string {
	var names []string
	for _, o := range gj.Offices {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			continue
		}
		if isUSDesignation(name) {
			return unitedStates
		}
		names = append(names, name)
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	return gj.Location.Name
}

func isUSDesignation(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US", "USA", "UNITED STATES":
		return true
	}
	return false
}
