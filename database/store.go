package database

import (
	"context"
	"time"
)

// Store is the repository contract shared by the in-memory and SQLite
// backends. Every entity-scoped call takes the owning user's id and
// filters on it, so foreign entities come back as ErrNotFound.
//
// Ordering: ListColumns and ListTasks sort ascending by position with a
// stable tiebreak on insertion order. MoveTask writes the target
// position unconditionally and never renumbers siblings, so ties can
// occur; ties keep insertion order.
type Store interface {
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)

	// Sessions
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error

	// Boards
	ListBoards(ctx context.Context, userID string) ([]Board, error)
	GetBoard(ctx context.Context, id, userID string) (Board, error)
	CreateBoard(ctx context.Context, board Board) (Board, error)
	UpdateBoard(ctx context.Context, id string, patch BoardPatch, userID string) (Board, error)
	DeleteBoard(ctx context.Context, id, userID string) error

	// Columns
	ListColumns(ctx context.Context, boardID, userID string) ([]Column, error)
	CreateColumn(ctx context.Context, column Column) (Column, error)
	UpdateColumn(ctx context.Context, id string, patch ColumnPatch, userID string) (Column, error)
	DeleteColumn(ctx context.Context, id, userID string) error

	// Tasks
	ListTasks(ctx context.Context, columnID, userID string) ([]Task, error)
	GetTask(ctx context.Context, id, userID string) (Task, error)
	CreateTask(ctx context.Context, task Task) (Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch, userID string) (Task, error)
	MoveTask(ctx context.Context, id, columnID string, position int, userID string) (Task, error)
	DeleteTask(ctx context.Context, id, userID string) error

	// Comments
	ListComments(ctx context.Context, taskID, userID string) ([]Comment, error)
	CreateComment(ctx context.Context, comment Comment) (Comment, error)
	DeleteComment(ctx context.Context, id, userID string) error

	// Dependencies
	ListDependencies(ctx context.Context, taskID, userID string) ([]Dependency, error)
	CreateDependency(ctx context.Context, dep Dependency) (Dependency, error)
	DeleteDependency(ctx context.Context, id, userID string) error

	// ProvisionDefaultBoard creates the starter board for a new user:
	// one board, the four canonical columns and a welcome task, as one
	// atomic unit.
	ProvisionDefaultBoard(ctx context.Context, userID string) (Board, error)

	Close() error
}

// DefaultColumns are the lanes provisioned for every new user, in
// position order.
var DefaultColumns = []struct {
	Title string
	Color string
}{
	{Title: "Backlog", Color: "#3b82f6"},
	{Title: "In Progress", Color: "#eab308"},
	{Title: "Review", Color: "#f97316"},
	{Title: "Done", Color: "#10b981"},
}

const (
	DefaultBoardName        = "My Kanban Board"
	DefaultBoardDescription = "Personal task board"
	WelcomeTaskTitle        = "Welcome!"
	WelcomeTaskDescription  = "This is your first task. Edit it or create new ones."
)
