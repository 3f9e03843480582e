package state

import (
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Report is the new-postings artifact written after a run that found
// something new. It is independent of the snapshot.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Count       int             `json:"count"`
	Postings    []model.Posting `json:"postings"`
}

// WriteReport writes the postings found at generatedAt to path.
func WriteReport(path string, postings []model.Posting, generatedAt time.Time) error {
	if postings == nil {
		postings = []model.Posting{}
	}
	return writeJSONAtomic(path, Report{
		GeneratedAt: generatedAt.UTC(),
		Count:       len(postings),
		Postings:    postings,
	})
}
