package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

const (
	// Slack rejects messages with more than 50 blocks; each posting uses 4.
	maxSlackChunk     = 12
	defaultSlackChunk = 10
	messageInterval   = 500 * time.Millisecond
)

// SlackNotifier sends posting alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	hook      webhook
	chunkSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewSlackNotifier returns a notifier that posts postings to Slack in
// messages of at most chunkSize postings each.
func NewSlackNotifier(webhookURL string, chunkSize int, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	if chunkSize <= 0 {
		chunkSize = defaultSlackChunk
	}
	if chunkSize > maxSlackChunk {
		chunkSize = maxSlackChunk
	}
	return &SlackNotifier{
		hook:      webhook{name: "slack", url: webhookURL, httpClient: httpClient, logger: logger},
		chunkSize: chunkSize,
		interval:  messageInterval,
		logger:    logger,
	}
}

// Notify sends the postings as Block Kit messages. Returns an error only if
// ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(ctx context.Context, postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	chunks := chunk(postings, s.chunkSize)
	failures := 0
	for i, c := range chunks {
		if i > 0 {
			if err := sleep(ctx, s.interval); err != nil {
				return err
			}
		}
		if err := s.hook.post(ctx, buildSlackPayload(c, len(postings))); err != nil {
			s.logger.Error("slack notification failed", "postings", len(c), "error", err)
			failures++
		}
	}

	if failures == len(chunks) {
		return fmt.Errorf("all %d slack messages failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(chunks)-failures, "failed", failures)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func buildSlackPayload(postings []model.Posting, total int) slackPayload {
	summary := fmt.Sprintf("%d new posting(s) detected", total)
	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: "🚀 " + summary},
	}}

	for _, p := range postings {
		posted := p.PostedDate()
		if posted == "" {
			posted = "Just detected"
		}
		location := p.Location
		if location == "" {
			location = "N/A"
		}

		blocks = append(blocks,
			slackBlock{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: "*" + capitalize(p.Organization) + "*: " + p.Title},
			},
			slackBlock{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: "*Location:*\n" + location},
					{Type: "mrkdwn", Text: "*Posted:*\n" + posted + "  (" + capitalize(p.Provider) + ")"},
				},
			},
		)
		if p.ApplyURL != "" {
			blocks = append(blocks, slackBlock{
				Type: "actions",
				Elements: []slackElement{{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Apply Now"},
					URL:   p.ApplyURL,
					Style: "primary",
				}},
			})
		}
		blocks = append(blocks, slackBlock{Type: "divider"})
	}

	return slackPayload{Text: summary, Blocks: blocks}
}

func chunk(postings []model.Posting, size int) [][]model.Posting {
	var out [][]model.Posting
	for len(postings) > 0 {
		n := min(size, len(postings))
		out = append(out, postings[:n])
		postings = postings[n:]
	}
	return out
}
