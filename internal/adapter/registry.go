package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/amishk599/jobradar/internal/model"
)

// Provider kinds.
const (
	KindGreenhouse      = "greenhouse"
	KindLever           = "lever"
	KindAshby           = "ashby"
	KindGem             = "gem"
	KindSmartRecruiters = "smartrecruiters"
	KindWorkday         = "workday"
)

// ErrUnknownProvider is returned when an organization names a provider kind
// that is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// aliases maps alternate spellings found in older company files.
var aliases = map[string]string{
	"workday_url": KindWorkday,
}

// Registry dispatches each organization to the adapter for its provider kind.
// It is itself a model.Fetcher.
type Registry struct {
	fetchers map[string]model.Fetcher
}

// NewRegistry returns a registry with every built-in adapter registered.
func NewRegistry(opts Options) *Registry {
	r := &Registry{fetchers: make(map[string]model.Fetcher)}
	r.Register(KindGreenhouse, NewGreenhouseAdapter(opts))
	r.Register(KindLever, NewLeverAdapter(opts))
	r.Register(KindAshby, NewAshbyAdapter(opts))
	r.Register(KindGem, NewGemAdapter(opts))
	r.Register(KindSmartRecruiters, NewSmartRecruitersAdapter(opts))
	r.Register(KindWorkday, NewWorkdayAdapter(opts))
	return r
}

// Register adds or replaces the fetcher for kind.
func (r *Registry) Register(kind string, f model.Fetcher) {
	r.fetchers[kind] = f
}

// Wrap replaces every registered fetcher with wrap(kind, fetcher). It is
// used to layer retry and rate limiting around each adapter.
func (r *Registry) Wrap(wrap func(kind string, f model.Fetcher) model.Fetcher) {
	for kind, f := range r.fetchers {
		r.fetchers[kind] = wrap(kind, f)
	}
}

// Lookup returns the fetcher registered for kind.
func (r *Registry) Lookup(kind string) (model.Fetcher, error) {
	kind = Canonical(kind)
	f, ok := r.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProvider, kind, r.Kinds())
	}
	return f, nil
}

// Kinds returns the registered provider kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.fetchers))
	for k := range r.fetchers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Fetch dispatches to the adapter for org's provider kind.
func (r *Registry) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	f, err := r.Lookup(org.ProviderKind())
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, org)
}

// Canonical returns the canonical provider kind for name, resolving aliases.
func Canonical(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
