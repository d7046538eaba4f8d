package tasklink

import (
	"github.com/google/go-github/v45/github"
	"github.com/slack-go/slack"
)

type Service struct {
	GHSecret []byte
	AdminKey string

	// GHClient, when non-nil, is used to fetch user profiles during provisioning.
	GHClient *github.Client

	// SlackClient and SlackChannel, when both set, enable provisioning notices.
	SlackClient  *slack.Client
	SlackChannel string

	Users    UserStore
	Comments CommentStore
	Tasks    TaskStore

	Provisioner UserProvisioner
}
