package pg

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"tasklink"
)

//go:embed migrations/*.sql
var migrations embed.FS

func Open(ctx context.Context, dsn string) (Stores, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return Stores{}, errors.Wrap(err, "opening db")
	}

	goose.SetBaseFS(migrations)
	if err = goose.SetDialect("postgres"); err != nil {
		db.Close()
		return Stores{}, errors.Wrap(err, "setting migration dialect")
	}
	if err = goose.Up(db, "migrations"); err != nil {
		db.Close()
		return Stores{}, errors.Wrap(err, "running migrations")
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
