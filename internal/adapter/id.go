package adapter

import (
	"strings"

	"github.com/google/uuid"

	"github.com/amishk599/jobradar/internal/model"
)

// idNamespace scopes the name-based UUIDs minted for postings without a native id.
var idNamespace = uuid.MustParse("6f1c2a7e-3b0d-4c4e-9a1f-2d8b7e4c6a10")

// postingID builds "{provider}-{nativeID}". When the provider omits a native
// id, a UUIDv5 over organization, title and location is used instead so the
// id stays stable across runs regardless of page boundaries.
func postingID(provider, nativeID string, org model.Organization, title, location string) string {
	if nativeID != "" {
		return provider + "-" + nativeID
	}
	key := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(org.Name),
		strings.TrimSpace(title),
		strings.TrimSpace(location),
	}, "\x1f"))
	return provider + "-" + uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
