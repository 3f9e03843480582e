package pipeline

import (
	"errors"
	"testing"

	"github.com/amishk599/jobradar/internal/model"
)

func disabled(o model.Organization) model.Organization {
	off := false
	o.Enabled = &off
	return o
}

func TestSelectOrganizations(t *testing.T) {
	orgs := []model.Organization{
		org("Stripe", "greenhouse"),
		org("Netflix", "lever"),
		org("Nvidia", "workday_url"),
		org("Adobe", "Workday"),
		disabled(org("Hidden", "greenhouse")),
	}

	tests := []struct {
		name, company, provider string
		want                    []string
		wantErr                 bool
	}{
		{name: "all enabled", want: []string{"Stripe", "Netflix", "Nvidia", "Adobe"}},
		{name: "company case-insensitive", company: "stripe", want: []string{"Stripe"}},
		{name: "provider with alias", provider: "workday", want: []string{"Nvidia", "Adobe"}},
		{name: "alias as filter", provider: "WORKDAY_URL", want: []string{"Nvidia", "Adobe"}},
		{name: "company and provider", company: "Netflix", provider: "lever", want: []string{"Netflix"}},
		{name: "unknown company", company: "Nope", wantErr: true},
		{name: "disabled company", company: "Hidden", wantErr: true},
		{name: "company with other provider", company: "Stripe", provider: "lever", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectOrganizations(orgs, tt.company, tt.provider)
			if tt.wantErr {
				if !errors.Is(err, ErrNoOrganizations) {
					t.Fatalf("expected ErrNoOrganizations, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d organizations, want %v", len(got), tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("got[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestSelectOrganizations_NoneEnabled(t *testing.T) {
	_, err := SelectOrganizations([]model.Organization{disabled(org("A", "lever"))}, "", "")
	if !errors.Is(err, ErrNoOrganizations) {
		t.Fatalf("expected ErrNoOrganizations, got %v", err)
	}
}

func TestFirstPerProvider(t *testing.T) {
	got := FirstPerProvider([]model.Organization{
		org("A", "greenhouse"),
		org("B", "greenhouse"),
		org("C", "workday_url"),
		org("D", "workday"),
		org("E", "lever"),
	})
	want := []string{"A", "C", "E"}
	if len(got) != len(want) {
		t.Fatalf("got %d organizations, want %v", len(got), want)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Name, want[i])
		}
	}
}
