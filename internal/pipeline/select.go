package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/model"
)

// ErrNoOrganizations is returned when the company or provider filter leaves
// nothing to fetch.
var ErrNoOrganizations = errors.New("no organizations to fetch")

// SelectOrganizations returns the enabled organizations, narrowed to the
// named company and provider kind when those are set. Both comparisons are
// case-insensitive; provider aliases resolve to their canonical kind.
func SelectOrganizations(orgs []model.Organization, company, provider string) ([]model.Organization, error) {
	var enabled []model.Organization
	for _, o := range orgs {
		if o.IsEnabled() {
			enabled = append(enabled, o)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("%w: no enabled companies configured", ErrNoOrganizations)
	}

	selected := enabled
	if company = strings.TrimSpace(company); company != "" {
		selected = filterOrgs(selected, func(o model.Organization) bool {
			return strings.EqualFold(strings.TrimSpace(o.Name), company)
		})
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w: company %q not found", ErrNoOrganizations, company)
		}
	}

	if provider = strings.ToLower(strings.TrimSpace(provider)); provider != "" {
		kind := adapter.Canonical(provider)
		selected = filterOrgs(selected, func(o model.Organization) bool {
			return adapter.Canonical(o.ProviderKind()) == kind
		})
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w: no companies with provider %q", ErrNoOrganizations, provider)
		}
	}

	return selected, nil
}

// FirstPerProvider keeps the first organization of each provider kind.
func FirstPerProvider(orgs []model.Organization) []model.Organization {
	seen := make(map[string]bool)
	var out []model.Organization
	for _, o := range orgs {
		kind := adapter.Canonical(o.ProviderKind())
		if seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, o)
	}
	return out
}

func filterOrgs(orgs []model.Organization, keep func(model.Organization) bool) []model.Organization {
	var out []model.Organization
	for _, o := range orgs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
