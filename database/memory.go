package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the ephemeral Store backend: mutex-guarded maps with a
// monotonic insertion sequence so position ties keep insertion order.
type MemoryStore struct {
	mu  sync.RWMutex
	seq int64

	users        map[string]User
	sessions     map[string]Session
	boards       map[string]Board
	columns      map[string]memColumn
	tasks        map[string]memTask
	comments     map[string]Comment
	dependencies map[string]Dependency
}

type memColumn struct {
	Column
	seq int64
}

type memTask struct {
	Task
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]User),
		sessions:     make(map[string]Session),
		boards:       make(map[string]Board),
		columns:      make(map[string]memColumn),
		tasks:        make(map[string]memTask),
		comments:     make(map[string]Comment),
		dependencies: make(map[string]Dependency),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneTask(t Task) Task {
	out := t
	if t.Description != nil {
		d := *t.Description
		out.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.Tags != nil {
		out.Tags = append(TagList{}, t.Tags...)
	}
	return out
}

func cloneBoard(b Board) Board {
	out := b
	if b.Description != nil {
		d := *b.Description
		out.Description = &d
	}
	return out
}

func cloneUser(u User) User {
	out := u
	if u.ProfileImageURL != nil {
		p := *u.ProfileImageURL
		out.ProfileImageURL = &p
	}
	return out
}

// Users

func (s *MemoryStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrConflict
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user

	return cloneUser(user), nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, patch UserPatch) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
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
	s.users[id] = user

	return cloneUser(user), nil
}

// Sessions

func (s *MemoryStore) CreateSession(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Boards

func (s *MemoryStore) ListBoards(_ context.Context, userID string) ([]Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Board{}
	for _, board := range s.boards {
		if board.UserID == userID {
			out = append(out, cloneBoard(board))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetBoard(_ context.Context, id, userID string) (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board, ok := s.boards[id]
	if !ok || board.UserID != userID {
		return Board{}, ErrNotFound
	}
	return cloneBoard(board), nil
}

func (s *MemoryStore) CreateBoard(_ context.Context, board Board) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createBoardLocked(board), nil
}

func (s *MemoryStore) createBoardLocked(board Board) Board {
	if board.ID == "" {
		board.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if board.CreatedAt.IsZero() {
		board.CreatedAt = now
	}
	board.UpdatedAt = board.CreatedAt
	s.boards[board.ID] = board
	return cloneBoard(board)
}

func (s *MemoryStore) UpdateBoard(_ context.Context, id string, patch BoardPatch, userID string) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.boards[id]
	if !ok || board.UserID != userID {
		return Board{}, ErrNotFound
	}

	if patch.Name != nil {
		board.Name = *patch.Name
	}
	if patch.Description != nil {
		board.Description = patch.Description
	}
	board.UpdatedAt = time.Now().UTC()
	s.boards[id] = board

	return cloneBoard(board), nil
}

func (s *MemoryStore) DeleteBoard(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.boards[id]
	if !ok || board.UserID != userID {
		return ErrNotFound
	}

	for columnID, column := range s.columns {
		if column.BoardID == id {
			s.deleteColumnLocked(columnID)
		}
	}
	delete(s.boards, id)
	return nil
}

// Columns

func (s *MemoryStore) ListColumns(_ context.Context, boardID, userID string) ([]Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []memColumn{}
	for _, column := range s.columns {
		if column.BoardID == boardID && column.UserID == userID {
			rows = append(rows, column)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].seq < rows[j].seq
	})

	out := make([]Column, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Column)
	}
	return out, nil
}

func (s *MemoryStore) CreateColumn(_ context.Context, column Column) (Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createColumnLocked(column), nil
}

func (s *MemoryStore) createColumnLocked(column Column) Column {
	if column.ID == "" {
		column.ID = uuid.NewString()
	}
	if column.CreatedAt.IsZero() {
		column.CreatedAt = time.Now().UTC()
	}
	s.columns[column.ID] = memColumn{Column: column, seq: s.nextSeq()}
	return column
}

func (s *MemoryStore) UpdateColumn(_ context.Context, id string, patch ColumnPatch, userID string) (Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.columns[id]
	if !ok || row.UserID != userID {
		return Column{}, ErrNotFound
	}

	if patch.Title != nil {
		row.Title = *patch.Title
	}
	if patch.Position != nil {
		row.Position = *patch.Position
	}
	if patch.Color != nil {
		row.Color = *patch.Color
	}
	s.columns[id] = row

	return row.Column, nil
}

func (s *MemoryStore) DeleteColumn(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.columns[id]
	if !ok || row.UserID != userID {
		return ErrNotFound
	}

	s.deleteColumnLocked(id)
	return nil
}

// deleteColumnLocked cascades to all tasks in the column and their
// comments and dependencies.
func (s *MemoryStore) deleteColumnLocked(id string) {
	for taskID, task := range s.tasks {
		if task.ColumnID == id {
			s.deleteTaskLocked(taskID)
		}
	}
	delete(s.columns, id)
}

// Tasks

func (s *MemoryStore) ListTasks(_ context.Context, columnID, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []memTask{}
	for _, task := range s.tasks {
		if task.ColumnID == columnID && task.UserID == userID {
			rows = append(rows, task)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].seq < rows[j].seq
	})

	out := make([]Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneTask(row.Task))
	}
	return out, nil
}

func (s *MemoryStore) GetTask(_ context.Context, id, userID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.tasks[id]
	if !ok || row.UserID != userID {
		return Task{}, ErrNotFound
	}
	return cloneTask(row.Task), nil
}

func (s *MemoryStore) CreateTask(_ context.Context, task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createTaskLocked(task), nil
}

func (s *MemoryStore) createTaskLocked(task Task) Task {
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
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = task.CreatedAt
	s.tasks[task.ID] = memTask{Task: task, seq: s.nextSeq()}
	return cloneTask(task)
}

func (s *MemoryStore) UpdateTask(_ context.Context, id string, patch TaskPatch, userID string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tasks[id]
	if !ok || row.UserID != userID {
		return Task{}, ErrNotFound
	}

	if patch.ColumnID != nil {
		row.ColumnID = *patch.ColumnID
	}
	if patch.Title != nil {
		row.Title = *patch.Title
	}
	if patch.Description != nil {
		row.Description = patch.Description
	}
	if patch.Priority != nil {
		row.Priority = *patch.Priority
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.Progress != nil {
		row.Progress = *patch.Progress
	}
	if patch.DueDate != nil {
		row.DueDate = patch.DueDate
	}
	if patch.Tags != nil {
		row.Tags = append(TagList{}, (*patch.Tags)...)
	}
	if patch.Position != nil {
		row.Position = *patch.Position
	}
	row.UpdatedAt = time.Now().UTC()
	s.tasks[id] = row

	return cloneTask(row.Task), nil
}

// MoveTask rewrites the task's column and position only; siblings are
// never renumbered, so duplicate positions are possible.
func (s *MemoryStore) MoveTask(_ context.Context, id, columnID string, position int, userID string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tasks[id]
	if !ok || row.UserID != userID {
		return Task{}, ErrNotFound
	}

	row.ColumnID = columnID
	row.Position = position
	row.UpdatedAt = time.Now().UTC()
	s.tasks[id] = row

	return cloneTask(row.Task), nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tasks[id]
	if !ok || row.UserID != userID {
		return ErrNotFound
	}

	s.deleteTaskLocked(id)
	return nil
}

// deleteTaskLocked cascades to dependencies referencing the task from
// either endpoint, and to its comments.
func (s *MemoryStore) deleteTaskLocked(id string) {
	for depID, dep := range s.dependencies {
		if dep.FromTaskID == id || dep.ToTaskID == id {
			delete(s.dependencies, depID)
		}
	}
	for commentID, comment := range s.comments {
		if comment.TaskID == id {
			delete(s.comments, commentID)
		}
	}
	delete(s.tasks, id)
}

// Comments

func (s *MemoryStore) ListComments(_ context.Context, taskID, userID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, comment := range s.comments {
		if comment.TaskID == taskID && comment.UserID == userID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateComment(_ context.Context, comment Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Author == "" {
		comment.Author = "You"
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	s.comments[comment.ID] = comment

	return comment, nil
}

func (s *MemoryStore) DeleteComment(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || comment.UserID != userID {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// Dependencies

func (s *MemoryStore) ListDependencies(_ context.Context, taskID, userID string) ([]Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Ownership is transitive through the from-task.
	if row, ok := s.tasks[taskID]; !ok || row.UserID != userID {
		return []Dependency{}, nil
	}

	out := []Dependency{}
	for _, dep := range s.dependencies {
		if dep.FromTaskID == taskID {
			out = append(out, dep)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateDependency(_ context.Context, dep Dependency) (Dependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dep.ID == "" {
		dep.ID = uuid.NewString()
	}
	if dep.CreatedAt.IsZero() {
		dep.CreatedAt = time.Now().UTC()
	}
	s.dependencies[dep.ID] = dep

	return dep, nil
}

func (s *MemoryStore) DeleteDependency(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.dependencies[id]
	if !ok {
		return ErrNotFound
	}
	// Ownership is transitive through the from-task.
	if row, ok := s.tasks[dep.FromTaskID]; !ok || row.UserID != userID {
		return ErrNotFound
	}
	delete(s.dependencies, id)
	return nil
}

// ProvisionDefaultBoard builds the starter board atomically under the
// store mutex.
func (s *MemoryStore) ProvisionDefaultBoard(_ context.Context, userID string) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	description := DefaultBoardDescription
	board := s.createBoardLocked(Board{
		UserID:      userID,
		Name:        DefaultBoardName,
		Description: &description,
	})

	var firstColumnID string
	for i, def := range DefaultColumns {
		column := s.createColumnLocked(Column{
			BoardID:  board.ID,
			UserID:   userID,
			Title:    def.Title,
			Position: i,
			Color:    def.Color,
		})
		if i == 0 {
			firstColumnID = column.ID
		}
	}

	welcome := WelcomeTaskDescription
	s.createTaskLocked(Task{
		ColumnID:    firstColumnID,
		UserID:      userID,
		Title:       WelcomeTaskTitle,
		Description: &welcome,
		Priority:    PriorityMedium,
		Status:      StatusBacklog,
		Position:    0,
		Tags:        TagList{"welcome"},
	})

	return board, nil
}
