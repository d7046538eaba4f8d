package tasklink

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// notifyProvisioned posts a notice when a placeholder user has been created.
// Notification failures are logged, never returned: the webhook must not
// fail because Slack is down.
func (s *Service) notifyProvisioned(ctx context.Context, u *User) {
	if s.SlackClient == nil || s.SlackChannel == "" {
		return
	}

	msg := fmt.Sprintf("Created placeholder user %d for GitHub user %s", u.ID, u.GithubLogin)
	_, _, err := s.SlackClient.PostMessageContext(
		ctx,
		s.SlackChannel,
		slack.MsgOptionText(msg, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		log.Printf("Error posting provisioning notice to Slack: %s", err)
	}
}
