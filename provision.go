package tasklink

import (
	"context"
	"database/sql"

	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
)

// GHProvisioner creates internal users from GitHub webhook actors.
type GHProvisioner struct {
	Users UserStore

	// Client, when non-nil, is used to fill in profile fields the webhook
	// payload omits (name, e-mail). Enrichment failures fall back to the
	// payload attributes.
	Client *github.Client
}

var _ UserProvisioner = GHProvisioner{}

func (p GHProvisioner) CreateFromGitHub(ctx context.Context, ghUser *github.User) (*User, error) {
	if ghUser == nil || ghUser.ID == nil {
		return nil, errors.New("webhook actor has no ID")
	}

	if p.Client != nil {
		full, _, err := p.Client.Users.GetByID(ctx, *ghUser.ID)
		if err != nil {
			debugf("Could not fetch profile for GitHub user %d: %s", *ghUser.ID, err)
		} else {
			full.Type = ghUser.Type
			ghUser = full
		}
	}

	u := &User{
		GithubID:    sql.NullInt64{Int64: *ghUser.ID, Valid: true},
		GithubLogin: ghUser.GetLogin(),
		Name:        ghUser.GetName(),
		Email:       ghUser.GetEmail(),
		AvatarURL:   ghUser.GetAvatarURL(),
	}
	if u.Name == "" {
		u.Name = u.GithubLogin
	}

	err := p.Users.Add(ctx, u)
	return u, errors.Wrapf(err, "adding user for GitHub user %s", ghUser.GetLogin())
}
