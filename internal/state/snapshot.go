package state

import (
	"context"

	"github.com/amishk599/jobradar/internal/model"
)

// Snapshot maps a posting id to the last observed version of that posting.
type Snapshot map[string]model.Posting

// Store loads and saves the snapshot between runs.
type Store interface {
	// Load returns the persisted snapshot. A store that has never been
	// saved returns an empty snapshot and no error.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Reconcile diffs the current postings against the prior snapshot. It
// returns the postings whose id is not in prior, in input order and at most
// once per id, together with prior updated to hold every current posting's
// latest fields. Postings without an id are ignored. prior is not modified.
func Reconcile(current []model.Posting, prior Snapshot) ([]model.Posting, Snapshot) {
	updated := make(Snapshot, len(prior)+len(current))
	for id, p := range prior {
		updated[id] = p
	}

	var fresh []model.Posting
	added := make(map[string]bool)
	for _, p := range current {
		if p.ID == "" {
			continue
		}
		if _, seen := prior[p.ID]; !seen && !added[p.ID] {
			fresh = append(fresh, p)
			added[p.ID] = true
		}
		updated[p.ID] = p
	}

	return fresh, updated
}
