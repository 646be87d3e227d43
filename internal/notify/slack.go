package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by SlackAlerter,
// so tests run without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackAlerter posts operational alerts to the ops channel. Satisfies
// provision.Alerter.
type SlackAlerter struct {
	api     SlackAPI
	channel string
	log     zerolog.Logger
}

func NewSlackAlerter(api SlackAPI, channel string, log zerolog.Logger) *SlackAlerter {
	return &SlackAlerter{api: api, channel: channel, log: log}
}

// ProvisioningStalled reports a tenant whose transaction committed but whose
// identity step keeps failing. These need a human retry or investigation.
func (a *SlackAlerter) ProvisioningStalled(ctx context.Context, tenantSlug, ownerEmail, reason string) {
	text := stalledText(tenantSlug, ownerEmail, reason)

	_, _, err := a.api.PostMessageContext(ctx, a.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		a.log.Warn().Err(err).Str("slug", tenantSlug).Msg("failed to post ops alert")
	}
}

func stalledText(tenantSlug, ownerEmail, reason string) string {
	return fmt.Sprintf(
		":warning: provisioning stalled for `%s` (owner %s): %s; retry with the same idempotency key",
		tenantSlug, ownerEmail, reason,
	)
}
