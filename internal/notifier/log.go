package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new postings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting. It never fails.
func (n *LogNotifier) Notify(ctx context.Context, postings []model.Posting) error {
	for _, p := range postings {
		args := []any{"company", p.Organization, "title", p.Title, "location", p.Location, "url", p.ApplyURL}
		if d := p.PostedDate(); d != "" {
			args = append(args, "posted_at", d)
		}
		n.logger.InfoContext(ctx, "new posting", args...)
	}
	return nil
}
