package adapter

import (
	"context"
	"fmt"
)

// maxPages bounds every paginated fetch, whatever total the server reports.
const maxPages = 100

// pageFunc fetches the page starting at offset and returns its items along
// with the server-reported total (zero when the server omits it).
type pageFunc[T any] func(ctx context.Context, offset int) (items []T, total int, err error)

// paginate requests pages at increasing offsets until a page comes back
// empty or short, the offset reaches the reported total, no total was ever
// reported, or maxPages is hit. A failure after the first page returns the
// items collected so far together with the error.
func paginate[T any](ctx context.Context, pageSize int, fetch pageFunc[T]) ([]T, error) {
	var all []T
	total := 0
	offset := 0

	for page := 0; page < maxPages; page++ {
		items, reported, err := fetch(ctx, offset)
		if err != nil {
			return all, fmt.Errorf("page at offset %d: %w", offset, err)
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)

		// Some servers only report the total on the first page.
		if reported > 0 {
			total = reported
		}
		offset += pageSize
		if total == 0 || offset >= total || len(items) < pageSize {
			break
		}
	}

	return all, nil
}
