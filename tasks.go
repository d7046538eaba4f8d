package tasklink

import "context"

// TaskStore is a persistent store associating task records with the GitHub
// issues they came from.
type TaskStore interface {
	// UsersByIssue returns the distinct owners of task records recorded for
	// the given issue number in the repo with the given GitHub repo ID.
	UsersByIssue(ctx context.Context, issueNumber int, ghRepoID int64) ([]*User, error)

	ByIssue(ctx context.Context, issueNumber int, ghRepoID int64) (*Task, error)

	// Add adds a new task record.
	// On a successful return, the ID field of the object is populated.
	Add(ctx context.Context, t *Task) error

	SetState(ctx context.Context, id int64, state string) error
}

type Task struct {
	ID            int64
	GHIssueNumber int
	GHRepoID      int64
	UserID        int64
	Title         string
	State         string
}
