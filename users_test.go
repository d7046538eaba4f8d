package tasklink

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v45/github"
)

// In-memory stores for exercising the resolution policy.

type memDB struct {
	users    []*User
	comments []*Comment
	tasks    []*Task
	nextID   int64
}

func (db *memDB) newID() int64 {
	db.nextID++
	return db.nextID
}

type memUsers struct{ db *memDB }

func (m memUsers) ByID(_ context.Context, id int64) (*User, error) {
	for _, u := range m.db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) ByGithubID(_ context.Context, ghID int64) (*User, error) {
	for _, u := range m.db.users {
		if u.GithubID.Valid && u.GithubID.Int64 == ghID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) Add(_ context.Context, u *User) error {
	u.ID = m.db.newID()
	m.db.users = append(m.db.users, u)
	return nil
}

type memComments struct{ db *memDB }

// UsersByCommentID deliberately does not deduplicate:
// collapsing owners is the resolver's job.
func (m memComments) UsersByCommentID(ctx context.Context, ghCommentID int64) ([]*User, error) {
	var result []*User
	for _, c := range m.db.comments {
		if c.GHCommentID != ghCommentID {
			continue
		}
		u, err := memUsers{db: m.db}.ByID(ctx, c.UserID)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, nil
}

func (m memComments) ByCommentID(_ context.Context, ghCommentID int64) (*Comment, error) {
	for _, c := range m.db.comments {
		if c.GHCommentID == ghCommentID {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m memComments) Add(_ context.Context, c *Comment) error {
	c.ID = m.db.newID()
	m.db.comments = append(m.db.comments, c)
	return nil
}

type memTasks struct{ db *memDB }

func (m memTasks) UsersByIssue(ctx context.Context, issueNumber int, ghRepoID int64) ([]*User, error) {
	var result []*User
	for _, task := range m.db.tasks {
		if task.GHIssueNumber != issueNumber || task.GHRepoID != ghRepoID {
			continue
		}
		u, err := memUsers{db: m.db}.ByID(ctx, task.UserID)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, nil
}

func (m memTasks) ByIssue(_ context.Context, issueNumber int, ghRepoID int64) (*Task, error) {
	for _, task := range m.db.tasks {
		if task.GHIssueNumber == issueNumber && task.GHRepoID == ghRepoID {
			return task, nil
		}
	}
	return nil, ErrNotFound
}

func (m memTasks) Add(_ context.Context, task *Task) error {
	task.ID = m.db.newID()
	m.db.tasks = append(m.db.tasks, task)
	return nil
}

func (m memTasks) SetState(_ context.Context, id int64, state string) error {
	for _, task := range m.db.tasks {
		if task.ID == id {
			task.State = state
			return nil
		}
	}
	return ErrNotFound
}

func newTestService(db *memDB) *Service {
	users := memUsers{db: db}
	return &Service{
		Users:       users,
		Comments:    memComments{db: db},
		Tasks:       memTasks{db: db},
		Provisioner: GHProvisioner{Users: users},
	}
}

func addUser(db *memDB, ghID int64, login string) *User {
	u := &User{GithubLogin: login, Name: login}
	if ghID != 0 {
		u.GithubID = sql.NullInt64{Int64: ghID, Valid: true}
	}
	memUsers{db: db}.Add(context.Background(), u)
	return u
}

func addComment(db *memDB, ghCommentID, userID int64) {
	memComments{db: db}.Add(context.Background(), &Comment{GHCommentID: ghCommentID, UserID: userID})
}

func addTask(db *memDB, issueNumber int, ghRepoID, userID int64) {
	memTasks{db: db}.Add(context.Background(), &Task{GHIssueNumber: issueNumber, GHRepoID: ghRepoID, UserID: userID, State: "open"})
}

func ghActor(id int64, login, typ string) *github.User {
	return &github.User{
		ID:    github.Int64(id),
		Login: github.String(login),
		Type:  github.String(typ),
	}
}

func commentEvent(commentID int64, actor *github.User) *github.IssueCommentEvent {
	return &github.IssueCommentEvent{
		Action:  github.String("created"),
		Comment: &github.IssueComment{ID: github.Int64(commentID), User: actor},
		Issue:   &github.Issue{Number: github.Int(7), User: actor},
		Repo:    &github.Repository{ID: github.Int64(99)},
	}
}

func issueEvent(issueNumber int, ghRepoID int64, actor *github.User) *github.IssuesEvent {
	return &github.IssuesEvent{
		Action: github.String("opened"),
		Issue:  &github.Issue{Number: github.Int(issueNumber), User: actor},
		Repo:   &github.Repository{ID: github.Int64(ghRepoID)},
	}
}

func TestUserForComment(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate associations collapse to one match", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)
		u1 := addUser(db, 1001, "alice")
		addComment(db, 42, u1.ID)
		addComment(db, 42, u1.ID)

		got, err := s.UserForComment(ctx, commentEvent(42, ghActor(9999, "whoever", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(u1, got); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
		if len(db.users) != 1 {
			t.Errorf("got %d users, want 1", len(db.users))
		}
	})

	t.Run("distinct owners are ambiguous", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)
		u1 := addUser(db, 1001, "alice")
		u2 := addUser(db, 1002, "bob")
		addComment(db, 42, u1.ID)
		addComment(db, 42, u2.ID)

		_, err := s.UserForComment(ctx, commentEvent(42, ghActor(9999, "whoever", "User")))
		if !errors.Is(err, ErrMultipleUsers) {
			t.Errorf("got error %v, want ErrMultipleUsers", err)
		}
	})

	t.Run("no association, human actor, unknown GitHub ID", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)

		got, err := s.UserForComment(ctx, commentEvent(42, ghActor(501, "casey", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if !got.GithubID.Valid || got.GithubID.Int64 != 501 {
			t.Errorf("got GithubID %+v, want 501", got.GithubID)
		}
		if got.ID == 0 {
			t.Error("provisioned user has no ID")
		}
		if len(db.users) != 1 {
			t.Errorf("got %d users, want 1", len(db.users))
		}
	})

	t.Run("no association, human actor, known GitHub ID", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)
		carol := addUser(db, 501, "carol")

		got, err := s.UserForComment(ctx, commentEvent(42, ghActor(501, "carol", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(carol, got); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}
		if len(db.users) != 1 {
			t.Errorf("got %d users, want 1 (no duplicate provisioning)", len(db.users))
		}
	})

	t.Run("no association, bot actor", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)

		_, err := s.UserForComment(ctx, commentEvent(42, ghActor(9, "deploy-bot", "Bot")))
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("got error %v, want ErrUserNotFound", err)
		}
		if len(db.users) != 0 {
			t.Errorf("got %d users, want 0 (bots are never provisioned)", len(db.users))
		}
	})
}

func TestUserForIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("matches scoped to the repo", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)
		alice := addUser(db, 1001, "alice")
		addTask(db, 7, 99, alice.ID)

		got, err := s.UserForIssue(ctx, issueEvent(7, 99, ghActor(9999, "whoever", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(alice, got); diff != "" {
			t.Errorf("user mismatch (-want +got):\n%s", diff)
		}

		// Same issue number in another repo is no association at all.
		got, err = s.UserForIssue(ctx, issueEvent(7, 100, ghActor(501, "casey", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if got.ID == alice.ID {
			t.Error("matched a task from the wrong repo")
		}
		if len(db.users) != 2 {
			t.Errorf("got %d users, want 2", len(db.users))
		}
	})

	t.Run("distinct owners are ambiguous", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)
		alice := addUser(db, 1001, "alice")
		bob := addUser(db, 1002, "bob")
		addTask(db, 7, 99, alice.ID)
		addTask(db, 7, 99, bob.ID)

		_, err := s.UserForIssue(ctx, issueEvent(7, 99, ghActor(9999, "whoever", "User")))
		if !errors.Is(err, ErrMultipleUsers) {
			t.Errorf("got error %v, want ErrMultipleUsers", err)
		}
	})

	t.Run("provisioning is idempotent across redeliveries", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)

		first, err := s.UserForIssue(ctx, issueEvent(7, 99, ghActor(501, "casey", "User")))
		if err != nil {
			t.Fatal(err)
		}
		second, err := s.UserForIssue(ctx, issueEvent(7, 99, ghActor(501, "casey", "User")))
		if err != nil {
			t.Fatal(err)
		}
		if first.ID != second.ID {
			t.Errorf("redelivery provisioned a second user: %d then %d", first.ID, second.ID)
		}
		if len(db.users) != 1 {
			t.Errorf("got %d users, want 1", len(db.users))
		}
	})

	t.Run("no association, bot actor", func(t *testing.T) {
		db := new(memDB)
		s := newTestService(db)

		_, err := s.UserForIssue(ctx, issueEvent(7, 99, ghActor(9, "deploy-bot", "Bot")))
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("got error %v, want ErrUserNotFound", err)
		}
		if len(db.users) != 0 {
			t.Errorf("got %d users, want 0", len(db.users))
		}
	})
}
