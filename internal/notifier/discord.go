package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure DiscordNotifier implements model.Notifier.
var _ model.Notifier = (*DiscordNotifier)(nil)

// discordCharLimit is the maximum content length of one Discord message.
const discordCharLimit = 2000

// DiscordNotifier sends posting alerts to a Discord channel webhook as plain
// markdown messages, split so each stays under the character limit.
type DiscordNotifier struct {
	hook     webhook
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewDiscordNotifier returns a notifier that posts to the Discord webhook.
func NewDiscordNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		hook:     webhook{name: "discord", url: webhookURL, httpClient: httpClient, logger: logger},
		interval: messageInterval,
		now:      time.Now,
		logger:   logger,
	}
}

type discordPayload struct {
	Content string `json:"content"`
}

// Notify sends every message in order. Returns an error only if ALL
// messages fail.
func (d *DiscordNotifier) Notify(ctx context.Context, postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	messages := buildDiscordMessages(postings, d.now())
	failures := 0
	for i, m := range messages {
		if i > 0 {
			if err := sleep(ctx, d.interval); err != nil {
				return err
			}
		}
		if err := d.hook.post(ctx, discordPayload{Content: m}); err != nil {
			d.logger.Error("discord notification failed", "message", i+1, "error", err)
			failures++
		}
	}

	if failures == len(messages) {
		return fmt.Errorf("all %d discord messages failed", failures)
	}
	d.logger.Info("discord notifications complete", "sent", len(messages)-failures, "failed", failures)
	return nil
}

func formatDiscordPosting(p model.Posting) string {
	location := p.Location
	if location == "" {
		location = "Location N/A"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** | %s\n📍 %s", p.Organization, p.Title, location)
	if posted := p.PostedDate(); posted != "" {
		fmt.Fprintf(&b, "  📅 %s", posted)
	}
	if p.ApplyURL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", p.ApplyURL)
	}
	return b.String()
}

// buildDiscordMessages packs the header and posting blocks into messages of
// at most discordCharLimit characters. A block is never split across
// messages; a single oversized block is truncated.
func buildDiscordMessages(postings []model.Posting, now time.Time) []string {
	header := fmt.Sprintf("🚨 **%d new posting(s) detected!**\n_%s_\n\n", len(postings), now.UTC().Format("2006-01-02 15:04 UTC"))

	var messages []string
	current := header
	for _, p := range postings {
		block := truncate(formatDiscordPosting(p), discordCharLimit) + "\n\n"
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(block) > discordCharLimit {
			if s := strings.TrimSpace(current); s != "" {
				messages = append(messages, s)
			}
			current = block
			continue
		}
		current += block
	}
	if s := strings.TrimSpace(current); s != "" {
		messages = append(messages, s)
	}
	return messages
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
