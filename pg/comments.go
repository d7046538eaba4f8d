package pg

import (
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	"github.com/pkg/errors"

	"tasklink"
)

type commentStore struct {
	db *sql.DB
}

var _ tasklink.CommentStore = commentStore{}

func (c commentStore) UsersByCommentID(ctx context.Context, ghCommentID int64) ([]*tasklink.User, error) {
	const q = `
		SELECT DISTINCT u.id, u.github_id, u.github_login, u.name, u.email, u.avatar_url
			FROM users u JOIN comments c ON c.user_id = u.id
			WHERE c.gh_comment_id = $1`

	var result []*tasklink.User
	err := sqlutil.ForQueryRows(ctx, c.db, q, ghCommentID, func(id int64, githubID sql.NullInt64, login, name, email, avatarURL string) {
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

func (c commentStore) ByCommentID(ctx context.Context, ghCommentID int64) (*tasklink.Comment, error) {
	const q = `SELECT id, task_id, user_id, body FROM comments WHERE gh_comment_id = $1`
	result := &tasklink.Comment{
		GHCommentID: ghCommentID,
	}
	err := sqlutil.QueryRowContext(ctx, c.db, q, ghCommentID).Scan(&result.ID, &result.TaskID, &result.UserID, &result.Body)
	if errors.Is(err, sql.ErrNoRows) {
		err = tasklink.ErrNotFound
	}
	return result, err
}

func (c commentStore) Add(ctx context.Context, comment *tasklink.Comment) error {
	const q = `INSERT INTO comments (gh_comment_id, task_id, user_id, body) VALUES ($1, $2, $3, $4) RETURNING id`
	return c.db.QueryRowContext(ctx, q, comment.GHCommentID, comment.TaskID, comment.UserID, comment.Body).Scan(&comment.ID)
}
