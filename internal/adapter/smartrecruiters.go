package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/amishk599/jobradar/internal/model"
)

const (
	smartRecruitersBaseURL  = "https://api.smartrecruiters.com/v1/companies"
	smartRecruitersApplyURL = "https://jobs.smartrecruiters.com"
	smartRecruitersPageSize = 100
)

type smartRecruitersPage struct {
	TotalFound int                      `json:"totalFound"`
	Content    []smartRecruitersPosting `json:"content"`
}

type smartRecruitersPosting struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ReleasedDate string          `json:"releasedDate"`
	Location     json.RawMessage `json:"location"` // object, or occasionally a plain string
}

type smartRecruitersLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// SmartRecruitersAdapter fetches published postings from the paginated
// SmartRecruiters public API.
type SmartRecruitersAdapter struct {
	baseURL string
	http    requester
}

// NewSmartRecruitersAdapter creates a new adapter for SmartRecruiters companies.
func NewSmartRecruitersAdapter(opts Options) *SmartRecruitersAdapter {
	return &SmartRecruitersAdapter{
		baseURL: smartRecruitersBaseURL,
		http:    opts.requester(),
	}
}

// Fetch pages through the organization's postings. If a later page fails,
// the postings from earlier pages are returned along with the error.
func (a *SmartRecruitersAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	companyID := org.Identifier()

	raw, err := paginate(ctx, smartRecruitersPageSize, func(ctx context.Context, offset int) ([]smartRecruitersPosting, int, error) {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(smartRecruitersPageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("status", "PUBLISHED")

		var page smartRecruitersPage
		if err := a.http.getJSON(ctx, fmt.Sprintf("%s/%s/postings?%s", a.baseURL, companyID, params.Encode()), &page); err != nil {
			return nil, 0, err
		}
		return page.Content, page.TotalFound, nil
	})

	postings := make([]model.Posting, 0, len(raw))
	for _, item := range raw {
		location := item.location()
		applyURL := ""
		if item.ID != "" {
			applyURL = fmt.Sprintf("%s/%s/%s", smartRecruitersApplyURL, companyID, item.ID)
		}
		postings = append(postings, model.Posting{
			ID:           postingID(KindSmartRecruiters, item.ID, org, item.Name, location),
			Organization: org.Name,
			Title:        item.Name,
			Location:     location,
			PostedAt:     item.ReleasedDate,
			ApplyURL:     applyURL,
			Provider:     KindSmartRecruiters,
		})
	}

	if err != nil {
		return postings, fmt.Errorf("smartrecruiters fetch for %s: %w", companyID, err)
	}
	return postings, nil
}

func (p smartRecruitersPosting) location() string {
	if len(p.Location) == 0 {
		return ""
	}
	var loc smartRecruitersLocation
	if err := json.Unmarshal(p.Location, &loc); err == nil {
		return joinNonEmpty(", ", loc.City, loc.Region, loc.Country)
	}
	var s string
	if err := json.Unmarshal(p.Location, &s); err == nil {
		return s
	}
	return ""
}
