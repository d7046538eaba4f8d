package tasklink

import (
	"context"
	"database/sql"

	"github.com/bobg/go-generics/set"
	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
)

// User is an internal identity record.
// GithubID is set for users linked to (or provisioned from) a GitHub account.
type User struct {
	ID          int64
	GithubID    sql.NullInt64
	GithubLogin string
	Name        string
	Email       string
	AvatarURL   string
}

// UserStore is a persistent store for Users.
type UserStore interface {
	ByID(context.Context, int64) (*User, error)
	ByGithubID(context.Context, int64) (*User, error)

	// Add adds a new user to the store.
	// On a successful return, the ID field of the object is populated.
	Add(context.Context, *User) error
}

// UserProvisioner creates a new internal user from the GitHub-side actor
// embedded in a webhook payload.
type UserProvisioner interface {
	CreateFromGitHub(context.Context, *github.User) (*User, error)
}

// matchFunc reports the users already linked to the external entity named in
// a webhook payload, via prior-recorded association records.
type matchFunc func(context.Context) ([]*User, error)

// UserForComment resolves the acting user for an issue-comment event:
// the owners of comment records sharing the event's GitHub comment ID.
func (s *Service) UserForComment(ctx context.Context, ev *github.IssueCommentEvent) (*User, error) {
	return s.findOrCreateUser(ctx, ev.GetComment().GetUser(), func(ctx context.Context) ([]*User, error) {
		return s.Comments.UsersByCommentID(ctx, ev.GetComment().GetID())
	})
}

// UserForIssue resolves the acting user for an issue event:
// the owners of task records sharing the event's issue number and repo.
func (s *Service) UserForIssue(ctx context.Context, ev *github.IssuesEvent) (*User, error) {
	return s.findOrCreateUser(ctx, ev.GetIssue().GetUser(), func(ctx context.Context) ([]*User, error) {
		return s.Tasks.UsersByIssue(ctx, ev.GetIssue().GetNumber(), ev.GetRepo().GetID())
	})
}

func (s *Service) findOrCreateUser(ctx context.Context, actor *github.User, match matchFunc) (*User, error) {
	candidates, err := match(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying linked users")
	}

	// Collapse candidates by internal user ID.
	// Two association records owned by the same user are one match.
	var (
		seen     = set.New[int64]()
		distinct []*User
	)
	for _, u := range candidates {
		if seen.Has(u.ID) {
			continue
		}
		seen.Add(u.ID)
		distinct = append(distinct, u)
	}

	switch {
	case len(distinct) == 1:
		return distinct[0], nil

	case len(distinct) > 1:
		return nil, errors.Wrapf(ErrMultipleUsers, "%d distinct users", len(distinct))
	}

	if actor.GetType() != "User" {
		return nil, ErrUserNotFound
	}

	u, err := s.Users.ByGithubID(ctx, actor.GetID())
	if err == nil {
		debugf("Found existing user %d for GitHub user %s", u.ID, actor.GetLogin())
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrapf(err, "looking up user by GitHub ID %d", actor.GetID())
	}

	debugf("No user for GitHub user %s (%d), provisioning", actor.GetLogin(), actor.GetID())

	u, err = s.Provisioner.CreateFromGitHub(ctx, actor)
	if err != nil {
		return nil, err
	}
	s.notifyProvisioned(ctx, u)
	return u, nil
}
