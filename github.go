package tasklink

import (
	"context"
	"fmt"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
)

func (s *Service) OnGHWebhook(w http.ResponseWriter, req *http.Request) error {
	payload, err := github.ValidatePayload(req, s.GHSecret)
	if err != nil {
		return errors.Wrap(err, "validating webhook payload")
	}
	return s.OnValidGHWebhook(req.Context(), github.WebHookType(req), payload)
}

// OnValidGHWebhook handles a webhook payload whose signature has already been
// checked. It is shared by the HTTP handler and the lambda entrypoint.
func (s *Service) OnValidGHWebhook(ctx context.Context, typ string, payload []byte) error {
	ev, err := github.ParseWebHook(typ, payload)
	if err != nil {
		return errors.Wrap(err, "parsing webhook payload")
	}
	switch ev := ev.(type) {
	case *github.IssueCommentEvent:
		return s.OnIssueComment(ctx, ev)

	case *github.IssuesEvent:
		return s.OnIssue(ctx, ev)
	}

	return fmt.Errorf("unknown webhook payload type %T", ev)
}

func (s *Service) OnIssueComment(ctx context.Context, ev *github.IssueCommentEvent) error {
	if Verbose {
		debugf("issue_comment %s:\n%s", ev.GetAction(), spew.Sdump(ev.GetComment()))
	}

	u, err := s.UserForComment(ctx, ev)
	if err != nil {
		return errors.Wrapf(err, "resolving user for comment %d", ev.GetComment().GetID())
	}

	if ev.GetAction() != "created" {
		return nil
	}

	task, err := s.Tasks.ByIssue(ctx, ev.GetIssue().GetNumber(), ev.GetRepo().GetID())
	if errors.Is(err, ErrNotFound) {
		task = &Task{
			GHIssueNumber: ev.GetIssue().GetNumber(),
			GHRepoID:      ev.GetRepo().GetID(),
			UserID:        u.ID,
			Title:         ev.GetIssue().GetTitle(),
			State:         ev.GetIssue().GetState(),
		}
		err = s.Tasks.Add(ctx, task)
	}
	if err != nil {
		return errors.Wrapf(err, "getting task for issue %d", ev.GetIssue().GetNumber())
	}

	err = s.Comments.Add(ctx, &Comment{
		GHCommentID: ev.GetComment().GetID(),
		TaskID:      task.ID,
		UserID:      u.ID,
		Body:        ev.GetComment().GetBody(),
	})
	return errors.Wrapf(err, "recording comment %d", ev.GetComment().GetID())
}

func (s *Service) OnIssue(ctx context.Context, ev *github.IssuesEvent) error {
	if Verbose {
		debugf("issues %s:\n%s", ev.GetAction(), spew.Sdump(ev.GetIssue()))
	}

	u, err := s.UserForIssue(ctx, ev)
	if err != nil {
		return errors.Wrapf(err, "resolving user for issue %d", ev.GetIssue().GetNumber())
	}

	switch ev.GetAction() {
	case "opened":
		_, err = s.Tasks.ByIssue(ctx, ev.GetIssue().GetNumber(), ev.GetRepo().GetID())
		if err == nil {
			// Redelivery; the task already exists.
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return errors.Wrapf(err, "getting task for issue %d", ev.GetIssue().GetNumber())
		}
		err = s.Tasks.Add(ctx, &Task{
			GHIssueNumber: ev.GetIssue().GetNumber(),
			GHRepoID:      ev.GetRepo().GetID(),
			UserID:        u.ID,
			Title:         ev.GetIssue().GetTitle(),
			State:         "open",
		})
		return errors.Wrapf(err, "creating task for issue %d", ev.GetIssue().GetNumber())

	case "closed", "reopened":
		task, err := s.Tasks.ByIssue(ctx, ev.GetIssue().GetNumber(), ev.GetRepo().GetID())
		if err != nil {
			return errors.Wrapf(err, "getting task for issue %d", ev.GetIssue().GetNumber())
		}
		state := "open"
		if ev.GetAction() == "closed" {
			state = "closed"
		}
		return errors.Wrapf(s.Tasks.SetState(ctx, task.ID, state), "marking task %d %s", task.ID, state)
	}

	debugf("Ignoring issue action %s", ev.GetAction())
	return nil
}
