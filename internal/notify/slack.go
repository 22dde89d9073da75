// Package notify posts operational notifications. The only implementation
// today is Slack; ticket processing never depends on it.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"

	"github.com/triagehub/triagehub/internal/database"
)

// SlackNotifier announces incident report drafts in a Slack channel
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier creates a Slack notifier. Returns nil when no token or
// channel is configured so callers can wire it unconditionally.
func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	if botToken == "" || channel == "" {
		return nil
	}
	return &SlackNotifier{
		client:  slack.New(botToken),
		channel: channel,
	}
}

// ReportDrafted posts a message for a freshly drafted incident report.
// Failures are logged; the report stays drafted either way.
func (n *SlackNotifier) ReportDrafted(ctx context.Context, report *database.IncidentReport) {
	text := fmt.Sprintf(":memo: Incident report drafted for brand *%s*\n*%s*\n%s\nAffected: %d members across %d location(s)",
		report.BrandID,
		report.Content.Title,
		report.Content.Summary,
		report.AffectedMembers,
		report.AffectedLocations,
	)

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		log.Printf("Failed to post report notification to Slack: %v", err)
	}
}
