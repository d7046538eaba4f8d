package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"tasklink"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
  github_id INTEGER,
  github_login TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS github_id_index ON users (github_id) WHERE github_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS tasks (
  id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
  gh_issue_number INTEGER NOT NULL,
  gh_repo_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL REFERENCES users (id),
  title TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT 'open'
);

CREATE INDEX IF NOT EXISTS issue_repo_index ON tasks (gh_repo_id, gh_issue_number);

CREATE TABLE IF NOT EXISTS comments (
  id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
  gh_comment_id INTEGER NOT NULL,
  task_id INTEGER NOT NULL REFERENCES tasks (id),
  user_id INTEGER NOT NULL REFERENCES users (id),
  body TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS gh_comment_index ON comments (gh_comment_id);
`

func Open(ctx context.Context, conn string) (Stores, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return Stores{}, errors.Wrapf(err, "opening %s", conn)
	}
	_, err = db.ExecContext(ctx, schema)
	if err != nil {
		db.Close()
		return Stores{}, errors.Wrap(err, "instantiating schema")
	}
	return Stores{
		Users:    userStore{db: db},
		Comments: commentStore{db: db},
		Tasks:    taskStore{db: db},
		db:       db,
	}, nil
}

type Stores struct {
	Users    tasklink.UserStore
	Comments tasklink.CommentStore
	Tasks    tasklink.TaskStore

	db *sql.DB
}

func (s Stores) Close() error {
	return s.db.Close()
}
