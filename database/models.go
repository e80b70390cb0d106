package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task status values. These mirror the four canonical column ids.
const (
	StatusBacklog    = "backlog"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

type User struct {
	ID              string    `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	FirstName       string    `json:"firstName" db:"first_name"`
	LastName        string    `json:"lastName" db:"last_name"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty" db:"profile_image_url"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Session is a time-bounded credential tying an opaque id to a user.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

type Board struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type Column struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"boardId" db:"board_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Task struct {
	ID          string     `json:"id" db:"id"`
	ColumnID    string     `json:"columnId" db:"column_id"`
	UserID      string     `json:"userId" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Priority    string     `json:"priority" db:"priority"`
	Status      string     `json:"status" db:"status"`
	Progress    int        `json:"progress" db:"progress"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	Tags        TagList    `json:"tags" db:"tags"`
	Position    int        `json:"position" db:"position"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"taskId" db:"task_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	Author    string    `json:"author" db:"author"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Dependency is a directed edge between two tasks. Cycles and self-loops
// are representable and not rejected.
type Dependency struct {
	ID         string    `json:"id" db:"id"`
	FromTaskID string    `json:"fromTaskId" db:"from_task_id"`
	ToTaskID   string    `json:"toTaskId" db:"to_task_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// TagList is an ordered list of tags, stored as a JSON array in SQLite.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

func (t *TagList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported tags type %T", src)
	}
	if len(data) == 0 {
		*t = TagList{}
		return nil
	}
	return json.Unmarshal(data, t)
}

// UserPatch carries the profile fields that can change after
// registration. Nil fields are left untouched; same convention for the
// other patch types below.
type UserPatch struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type BoardPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ColumnPatch struct {
	Title    *string `json:"title"`
	Position *int    `json:"position"`
	Color    *string `json:"color"`
}

type TaskPatch struct {
	ColumnID    *string    `json:"columnId"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	Progress    *int       `json:"progress"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        *TagList   `json:"tags"`
	Position    *int       `json:"position"`
}
