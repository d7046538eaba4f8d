package tasklink

import "context"

// CommentStore is a persistent store associating comment records with the
// GitHub comments they came from.
type CommentStore interface {
	// UsersByCommentID returns the distinct owners of comment records
	// recorded for the given GitHub comment ID.
	UsersByCommentID(ctx context.Context, ghCommentID int64) ([]*User, error)

	ByCommentID(ctx context.Context, ghCommentID int64) (*Comment, error)

	// Add adds a new comment record.
	// On a successful return, the ID field of the object is populated.
	Add(ctx context.Context, c *Comment) error
}

type Comment struct {
	ID          int64
	GHCommentID int64
	TaskID      int64
	UserID      int64
	Body        string
}
