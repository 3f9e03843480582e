package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

// PrintPostings writes a human-readable block per posting.
func PrintPostings(w io.Writer, postings []model.Posting) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n  %d NEW POSTING(S) FOUND\n%s\n\n", rule, len(postings), rule)
	for _, p := range postings {
		fmt.Fprintf(w, "  %s | %s\n", p.Organization, p.Title)
		fmt.Fprintf(w, "  📍 %s\n", orNA(p.Location))
		fmt.Fprintf(w, "  🔗 %s\n", orNA(p.ApplyURL))
		if d := p.PostedDate(); d != "" {
			fmt.Fprintf(w, "  📅 %s\n", d)
		}
		fmt.Fprintln(w)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
