package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobradar/internal/model"
)

// Notifier types accepted in config.
const (
	TypeLog     = "log"
	TypeSlack   = "slack"
	TypeDiscord = "discord"
)

// New returns the notifier for kind. chunkSize only applies to Slack.
func New(kind, webhookURL string, chunkSize int, httpClient *http.Client, logger *slog.Logger) (model.Notifier, error) {
	switch kind {
	case "", TypeLog:
		return NewLogNotifier(logger), nil
	case TypeSlack:
		return NewSlackNotifier(webhookURL, chunkSize, httpClient, logger), nil
	case TypeDiscord:
		return NewDiscordNotifier(webhookURL, httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", kind)
	}
}

// SendTestMessage sends a dummy posting to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	test := model.Posting{
		ID:           "test-001",
		Organization: "JobRadar Test",
		Title:        "Software Engineer (integration check)",
		Location:     "Remote",
		ApplyURL:     "https://example.com/jobs/test-001",
		Provider:     "test",
	}
	return n.Notify(ctx, []model.Posting{test})
}
