package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	profile_image_url TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS columns (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	position INTEGER NOT NULL,
	color TEXT NOT NULL DEFAULT '#3b82f6',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	column_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	priority TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'backlog',
	progress INTEGER NOT NULL DEFAULT 0,
	due_date DATETIME,
	tags TEXT NOT NULL DEFAULT '[]',
	position INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	content TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT 'You',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS dependencies (
	id TEXT PRIMARY KEY,
	from_task_id TEXT NOT NULL,
	to_task_id TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// SQLiteStore is the persistent Store backend.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and ensures the
// schema exists.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A pooled connection to a plain :memory: DSN would get its own
	// empty database, so pin the pool to one connection there.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	var existing string
	err := s.db.GetContext(ctx, &existing, "SELECT id FROM users WHERE email = ?", user.Email)
	if err == nil {
		return User{}, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("failed to check email: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO users
		(id, email, password_hash, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.ProfileImageURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.ProfileImageURL != nil {
		user.ProfileImageURL = patch.ProfileImageURL
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `UPDATE users SET
		first_name = ?, last_name = ?, profile_image_url = ?, updated_at = ?
		WHERE id = ?`,
		user.FirstName, user.LastName, user.ProfileImageURL, user.UpdatedAt, id)
	if err != nil {
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Sessions

func (s *SQLiteStore) CreateSession(ctx context.Context, session Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)",
		session.ID, session.UserID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, error) {
	var session Session
	err := s.db.GetContext(ctx, &session, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// Boards

func (s *SQLiteStore) ListBoards(ctx context.Context, userID string) ([]Board, error) {
	boards := []Board{}
	err := s.db.SelectContext(ctx, &boards,
		"SELECT * FROM boards WHERE user_id = ? ORDER BY created_at, rowid", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	return boards, nil
}

func (s *SQLiteStore) GetBoard(ctx context.Context, id, userID string) (Board, error) {
	var board Board
	err := s.db.GetContext(ctx, &board,
		"SELECT * FROM boards WHERE id = ? AND user_id = ?", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, ErrNotFound
	}
	if err != nil {
		return Board{}, fmt.Errorf("failed to query board: %w", err)
	}
	return board, nil
}

func (s *SQLiteStore) CreateBoard(ctx context.Context, board Board) (Board, error) {
	board = prepareBoard(board)
	_, err := s.db.ExecContext(ctx, `INSERT INTO boards
		(id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		board.ID, board.UserID, board.Name, board.Description, board.CreatedAt, board.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("failed to insert board: %w", err)
	}
	return board, nil
}

func prepareBoard(board Board) Board {
	if board.ID == "" {
		board.ID = uuid.NewString()
	}
	if board.CreatedAt.IsZero() {
		board.CreatedAt = time.Now().UTC()
	}
	board.UpdatedAt = board.CreatedAt
	return board
}

func (s *SQLiteStore) UpdateBoard(ctx context.Context, id string, patch BoardPatch, userID string) (Board, error) {
	board, err := s.GetBoard(ctx, id, userID)
	if err != nil {
		return Board{}, err
	}

	if patch.Name != nil {
		board.Name = *patch.Name
	}
	if patch.Description != nil {
		board.Description = patch.Description
	}
	board.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE boards SET name = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		board.Name, board.Description, board.UpdatedAt, id, userID)
	if err != nil {
		return Board{}, fmt.Errorf("failed to update board: %w", err)
	}
	return board, nil
}

func (s *SQLiteStore) DeleteBoard(ctx context.Context, id, userID string) error {
	if _, err := s.GetBoard(ctx, id, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	columnIDs := []string{}
	if err := tx.SelectContext(ctx, &columnIDs,
		"SELECT id FROM columns WHERE board_id = ? AND user_id = ?", id, userID); err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	for _, columnID := range columnIDs {
		if err := deleteColumnTx(ctx, tx, columnID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM boards WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return tx.Commit()
}

// Columns

func (s *SQLiteStore) ListColumns(ctx context.Context, boardID, userID string) ([]Column, error) {
	columns := []Column{}
	// rowid keeps insertion order for equal positions.
	err := s.db.SelectContext(ctx, &columns,
		"SELECT * FROM columns WHERE board_id = ? AND user_id = ? ORDER BY position, rowid",
		boardID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	return columns, nil
}

func (s *SQLiteStore) CreateColumn(ctx context.Context, column Column) (Column, error) {
	column = prepareColumn(column)
	_, err := s.db.ExecContext(ctx, `INSERT INTO columns
		(id, board_id, user_id, title, position, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		column.ID, column.BoardID, column.UserID, column.Title,
		column.Position, column.Color, column.CreatedAt)
	if err != nil {
		return Column{}, fmt.Errorf("failed to insert column: %w", err)
	}
	return column, nil
}

func prepareColumn(column Column) Column {
	if column.ID == "" {
		column.ID = uuid.NewString()
	}
	if column.Color == "" {
		column.Color = "#3b82f6"
	}
	if column.CreatedAt.IsZero() {
		column.CreatedAt = time.Now().UTC()
	}
	return column
}

func (s *SQLiteStore) UpdateColumn(ctx context.Context, id string, patch ColumnPatch, userID string) (Column, error) {
	var column Column
	err := s.db.GetContext(ctx, &column,
		"SELECT * FROM columns WHERE id = ? AND user_id = ?", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Column{}, ErrNotFound
	}
	if err != nil {
		return Column{}, fmt.Errorf("failed to query column: %w", err)
	}

	if patch.Title != nil {
		column.Title = *patch.Title
	}
	if patch.Position != nil {
		column.Position = *patch.Position
	}
	if patch.Color != nil {
		column.Color = *patch.Color
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE columns SET title = ?, position = ?, color = ? WHERE id = ? AND user_id = ?",
		column.Title, column.Position, column.Color, id, userID)
	if err != nil {
		return Column{}, fmt.Errorf("failed to update column: %w", err)
	}
	return column, nil
}

func (s *SQLiteStore) DeleteColumn(ctx context.Context, id, userID string) error {
	var owner string
	err := s.db.GetContext(ctx, &owner,
		"SELECT id FROM columns WHERE id = ? AND user_id = ?", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query column: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteColumnTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteColumnTx cascades through the column's tasks to their comments
// and dependencies before removing the column.
func deleteColumnTx(ctx context.Context, tx *sqlx.Tx, columnID string) error {
	taskIDs := []string{}
	if err := tx.SelectContext(ctx, &taskIDs,
		"SELECT id FROM tasks WHERE column_id = ?", columnID); err != nil {
		return fmt.Errorf("failed to query tasks: %w", err)
	}
	for _, taskID := range taskIDs {
		if err := deleteTaskTx(ctx, tx, taskID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM columns WHERE id = ?", columnID); err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return nil
}

// Tasks

func (s *SQLiteStore) ListTasks(ctx context.Context, columnID, userID string) ([]Task, error) {
	tasks := []Task{}
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT * FROM tasks WHERE column_id = ? AND user_id = ? ORDER BY position, rowid",
		columnID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id, userID string) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task,
		"SELECT * FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, task Task) (Task, error) {
	task = prepareTask(task)
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks
		(id, column_id, user_id, title, description, priority, status, progress,
		 due_date, tags, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ColumnID, task.UserID, task.Title, task.Description,
		task.Priority, task.Status, task.Progress, task.DueDate, task.Tags,
		task.Position, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

func prepareTask(task Task) Task {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = StatusBacklog
	}
	if task.Tags == nil {
		task.Tags = TagList{}
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.UpdatedAt = task.CreatedAt
	return task
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, patch TaskPatch, userID string) (Task, error) {
	task, err := s.GetTask(ctx, id, userID)
	if err != nil {
		return Task{}, err
	}

	if patch.ColumnID != nil {
		task.ColumnID = *patch.ColumnID
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Progress != nil {
		task.Progress = *patch.Progress
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Tags != nil {
		task.Tags = *patch.Tags
	}
	if patch.Position != nil {
		task.Position = *patch.Position
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET
		column_id = ?, title = ?, description = ?, priority = ?, status = ?,
		progress = ?, due_date = ?, tags = ?, position = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		task.ColumnID, task.Title, task.Description, task.Priority, task.Status,
		task.Progress, task.DueDate, task.Tags, task.Position, task.UpdatedAt,
		id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) MoveTask(ctx context.Context, id, columnID string, position int, userID string) (Task, error) {
	task, err := s.GetTask(ctx, id, userID)
	if err != nil {
		return Task{}, err
	}

	task.ColumnID = columnID
	task.Position = position
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET column_id = ?, position = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		columnID, position, task.UpdatedAt, id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("failed to move task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id, userID string) error {
	if _, err := s.GetTask(ctx, id, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteTaskTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteTaskTx(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM dependencies WHERE from_task_id = ? OR to_task_id = ?", taskID, taskID); err != nil {
		return fmt.Errorf("failed to delete dependencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Comments

func (s *SQLiteStore) ListComments(ctx context.Context, taskID, userID string) ([]Comment, error) {
	comments := []Comment{}
	err := s.db.SelectContext(ctx, &comments,
		"SELECT * FROM comments WHERE task_id = ? AND user_id = ? ORDER BY created_at, rowid",
		taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	return comments, nil
}

func (s *SQLiteStore) CreateComment(ctx context.Context, comment Comment) (Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Author == "" {
		comment.Author = "You"
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO comments
		(id, task_id, user_id, content, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.TaskID, comment.UserID, comment.Content,
		comment.Author, comment.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("failed to insert comment: %w", err)
	}
	return comment, nil
}

func (s *SQLiteStore) DeleteComment(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM comments WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Dependencies

func (s *SQLiteStore) ListDependencies(ctx context.Context, taskID, userID string) ([]Dependency, error) {
	// Dependency ownership is transitive through the from-task.
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Dependency{}, nil
		}
		return nil, err
	}

	deps := []Dependency{}
	err := s.db.SelectContext(ctx, &deps,
		"SELECT * FROM dependencies WHERE from_task_id = ? ORDER BY created_at, rowid", taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	return deps, nil
}

func (s *SQLiteStore) CreateDependency(ctx context.Context, dep Dependency) (Dependency, error) {
	if dep.ID == "" {
		dep.ID = uuid.NewString()
	}
	if dep.CreatedAt.IsZero() {
		dep.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO dependencies
		(id, from_task_id, to_task_id, created_at)
		VALUES (?, ?, ?, ?)`,
		dep.ID, dep.FromTaskID, dep.ToTaskID, dep.CreatedAt)
	if err != nil {
		return Dependency{}, fmt.Errorf("failed to insert dependency: %w", err)
	}
	return dep, nil
}

func (s *SQLiteStore) DeleteDependency(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dependencies
		WHERE id = ? AND from_task_id IN (SELECT id FROM tasks WHERE user_id = ?)`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete dependency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ProvisionDefaultBoard creates the starter board, columns and welcome
// task in a single transaction, so a new user never ends up with a
// partially provisioned board.
func (s *SQLiteStore) ProvisionDefaultBoard(ctx context.Context, userID string) (Board, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Board{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	description := DefaultBoardDescription
	board := prepareBoard(Board{
		UserID:      userID,
		Name:        DefaultBoardName,
		Description: &description,
	})
	_, err = tx.ExecContext(ctx, `INSERT INTO boards
		(id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		board.ID, board.UserID, board.Name, board.Description, board.CreatedAt, board.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("failed to insert board: %w", err)
	}

	var firstColumnID string
	for i, def := range DefaultColumns {
		column := prepareColumn(Column{
			BoardID:  board.ID,
			UserID:   userID,
			Title:    def.Title,
			Position: i,
			Color:    def.Color,
		})
		_, err = tx.ExecContext(ctx, `INSERT INTO columns
			(id, board_id, user_id, title, position, color, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			column.ID, column.BoardID, column.UserID, column.Title,
			column.Position, column.Color, column.CreatedAt)
		if err != nil {
			return Board{}, fmt.Errorf("failed to insert column: %w", err)
		}
		if i == 0 {
			firstColumnID = column.ID
		}
	}

	welcome := WelcomeTaskDescription
	task := prepareTask(Task{
		ColumnID:    firstColumnID,
		UserID:      userID,
		Title:       WelcomeTaskTitle,
		Description: &welcome,
		Priority:    PriorityMedium,
		Status:      StatusBacklog,
		Position:    0,
		Tags:        TagList{"welcome"},
	})
	_, err = tx.ExecContext(ctx, `INSERT INTO tasks
		(id, column_id, user_id, title, description, priority, status, progress,
		 due_date, tags, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ColumnID, task.UserID, task.Title, task.Description,
		task.Priority, task.Status, task.Progress, task.DueDate, task.Tags,
		task.Position, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("failed to insert welcome task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Board{}, fmt.Errorf("failed to commit provisioning: %w", err)
	}
	return board, nil
}
