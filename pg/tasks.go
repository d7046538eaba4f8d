package pg

import (
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	"github.com/pkg/errors"

	"tasklink"
)

type taskStore struct {
	db *sql.DB
}

var _ tasklink.TaskStore = taskStore{}

func (t taskStore) UsersByIssue(ctx context.Context, issueNumber int, ghRepoID int64) ([]*tasklink.User, error) {
	const q = `
		SELECT DISTINCT u.id, u.github_id, u.github_login, u.name, u.email, u.avatar_url
			FROM users u JOIN tasks t ON t.user_id = u.id
			WHERE t.gh_issue_number = $1 AND t.gh_repo_id = $2`

	var result []*tasklink.User
	err := sqlutil.ForQueryRows(ctx, t.db, q, issueNumber, ghRepoID, func(id int64, githubID sql.NullInt64, login, name, email, avatarURL string) {
		result = append(result, &tasklink.User{
			ID:          id,
			GithubID:    githubID,
			GithubLogin: login,
			Name:        name,
			Email:       email,
			AvatarURL:   avatarURL,
		})
	})
	return result, err
}

func (t taskStore) ByIssue(ctx context.Context, issueNumber int, ghRepoID int64) (*tasklink.Task, error) {
	const q = `SELECT id, user_id, title, state FROM tasks WHERE gh_issue_number = $1 AND gh_repo_id = $2`
	result := &tasklink.Task{
		GHIssueNumber: issueNumber,
		GHRepoID:      ghRepoID,
	}
	err := sqlutil.QueryRowContext(ctx, t.db, q, issueNumber, ghRepoID).Scan(&result.ID, &result.UserID, &result.Title, &result.State)
	if errors.Is(err, sql.ErrNoRows) {
		err = tasklink.ErrNotFound
	}
	return result, err
}

func (t taskStore) Add(ctx context.Context, task *tasklink.Task) error {
	const q = `INSERT INTO tasks (gh_issue_number, gh_repo_id, user_id, title, state) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return t.db.QueryRowContext(ctx, q, task.GHIssueNumber, task.GHRepoID, task.UserID, task.Title, task.State).Scan(&task.ID)
}

func (t taskStore) SetState(ctx context.Context, id int64, state string) error {
	const q = `UPDATE tasks SET state = $1 WHERE id = $2`
	_, err := t.db.ExecContext(ctx, q, state, id)
	return err
}
