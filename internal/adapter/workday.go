package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

const workdayPageSize = 20

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	Locations     []string `json:"locations"` // used when locationsText is empty
	PostedOn      string   `json:"postedOn"`
}

func (l workdayListing) location() string {
	if l.LocationsText != "" {
		return l.LocationsText
	}
	return strings.Join(l.Locations, ", ")
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

var errMissingWorkdayURL = fmt.Errorf("%w: missing url", model.ErrInvalidOrganization)

// WorkdayAdapter fetches jobs from a Workday CXS career site. The
// organization's URL is the full .../wday/cxs/{tenant}/{site}/jobs endpoint.
type WorkdayAdapter struct {
	http requester
	opts Options
}

// NewWorkdayAdapter creates a new adapter for Workday career sites.
func NewWorkdayAdapter(opts Options) *WorkdayAdapter {
	return &WorkdayAdapter{
		http: opts.requester(),
		opts: opts,
	}
}

// Fetch pages through the listing endpoint. Postings only carry relative
// dates ("Posted 3 Days Ago"); they are resolved against the time Fetch was
// invoked. If a later page fails, earlier pages are kept.
func (a *WorkdayAdapter) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	apiURL := strings.TrimRight(org.URL, "/")
	if apiURL == "" {
		return nil, fmt.Errorf("workday fetch for %s: %w", org.Name, errMissingWorkdayURL)
	}
	now := a.opts.clock()()

	listings, err := paginate(ctx, workdayPageSize, func(ctx context.Context, offset int) ([]workdayListing, int, error) {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
			SearchText:    "",
		}
		var listResp workdayListingResponse
		if err := a.http.postJSON(ctx, apiURL, body, &listResp); err != nil {
			return nil, 0, err
		}
		return listResp.JobPostings, listResp.Total, nil
	})

	base, _, _ := strings.Cut(apiURL, "/wday/")
	orgSlug := slugify(org.Name)

	postings := make([]model.Posting, 0, len(listings))
	for _, l := range listings {
		location := normalizeWorkdayLocation(l.location())

		nativeID := ""
		if slug := lastPathSegment(l.ExternalPath); slug != "" {
			nativeID = orgSlug + "-" + slug
		}
		applyURL := ""
		if l.ExternalPath != "" {
			applyURL = base + l.ExternalPath
		}

		postings = append(postings, model.Posting{
			ID:           postingID(KindWorkday, nativeID, org, l.Title, location),
			Organization: org.Name,
			Title:        l.Title,
			Location:     location,
			PostedAt:     parseRelativeDate(l.PostedOn, now),
			ApplyURL:     applyURL,
			Provider:     KindWorkday,
		})
	}

	if err != nil {
		return postings, fmt.Errorf("workday fetch for %s: %w", org.Name, err)
	}
	return postings, nil
}

var workdayUSPrefix = regexp.MustCompile(`(?i)^US[,\s]`)

// normalizeWorkdayLocation rewrites Workday's "US, CA, Santa Clara" style
// into "United States, CA, Santa Clara".
func normalizeWorkdayLocation(loc string) string {
	loc = strings.TrimSpace(loc)
	if !workdayUSPrefix.MatchString(loc) {
		return loc
	}
	rest := strings.TrimSpace(loc[2:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	if rest == "" {
		return unitedStates
	}
	return unitedStates + ", " + rest
}

func lastPathSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
