package audit

import (
	"sort"

	"github.com/amishk599/jobradar/internal/model"
)

// Explainer reports whether a posting passes the classifier and, if not,
// the first rule that rejected it.
type Explainer interface {
	Explain(p model.Posting) (bool, string)
}

// Entry is a fetched posting annotated with the classifier's verdict.
type Entry struct {
	Posting model.Posting
	Matched bool
	Reason  string // empty when Matched
}

// Evaluate runs every posting through ex. It returns all entries and the
// matched subset, both newest first.
func Evaluate(postings []model.Posting, ex Explainer) (all, matched []Entry) {
	all = make([]Entry, 0, len(postings))
	for _, p := range postings {
		ok, reason := ex.Explain(p)
		e := Entry{Posting: p, Matched: ok, Reason: reason}
		all = append(all, e)
		if ok {
			matched = append(matched, e)
		}
	}
	sortByDate(all)
	sortByDate(matched)
	return all, matched
}

// sortByDate orders entries newest first; undated postings go last.
func sortByDate(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Posting.PostedDate(), entries[j].Posting.PostedDate()
		if di == "" || dj == "" {
			return di != "" && dj == ""
		}
		return di > dj
	})
}
