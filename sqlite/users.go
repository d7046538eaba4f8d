package sqlite

import (
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	"github.com/pkg/errors"

	"tasklink"
)

type userStore struct {
	db *sql.DB
}

var _ tasklink.UserStore = userStore{}

func (u userStore) ByID(ctx context.Context, id int64) (*tasklink.User, error) {
	const q = `SELECT github_id, github_login, name, email, avatar_url FROM users WHERE id = $1`
	result := &tasklink.User{
		ID: id,
	}
	err := sqlutil.QueryRowContext(ctx, u.db, q, id).Scan(&result.GithubID, &result.GithubLogin, &result.Name, &result.Email, &result.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		err = tasklink.ErrNotFound
	}
	return result, err
}

func (u userStore) ByGithubID(ctx context.Context, ghID int64) (*tasklink.User, error) {
	const q = `SELECT id, github_login, name, email, avatar_url FROM users WHERE github_id = $1`
	result := &tasklink.User{
		GithubID: sql.NullInt64{Int64: ghID, Valid: true},
	}
	err := sqlutil.QueryRowContext(ctx, u.db, q, ghID).Scan(&result.ID, &result.GithubLogin, &result.Name, &result.Email, &result.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		err = tasklink.ErrNotFound
	}
	return result, err
}

func (u userStore) Add(ctx context.Context, user *tasklink.User) error {
	const q = `INSERT INTO users (github_id, github_login, name, email, avatar_url) VALUES ($1, $2, $3, $4, $5)`
	res, err := u.db.ExecContext(ctx, q, user.GithubID, user.GithubLogin, user.Name, user.Email, user.AvatarURL)
	if err != nil {
		return err
	}
	user.ID, err = res.LastInsertId()
	return err
}
