package client

import (
	"context"
	"sync"

	"github.com/kanbanlab/kanban-app/database"
)

// statusForColumn mirrors the canonical column id onto a task status.
// Custom column ids return "" and leave the status untouched.
func statusForColumn(columnID string) string {
	switch columnID {
	case "backlog", "in-progress", "review", "done":
		return columnID
	default:
		return ""
	}
}

// mover is the remote side of a move command; satisfied by *Client.
type mover interface {
	MoveTask(ctx context.Context, id, columnID string, position int) (database.Task, error)
	Tasks(ctx context.Context, columnID string) ([]database.Task, error)
}

// BoardCache holds the locally cached task list and applies moves
// optimistically: the cache is rewritten before the server is asked,
// and restored from a snapshot if the server refuses.
//
// Only the latest in-flight move's snapshot is retained; overlapping
// moves are not queued or merged, the newest optimistic write wins
// locally until the server answers.
type BoardCache struct {
	mu    sync.Mutex
	tasks []database.Task

	// rollback snapshot for the single in-flight move
	pending []database.Task

	api mover
}

func NewBoardCache(api mover, tasks []database.Task) *BoardCache {
	return &BoardCache{
		api:   api,
		tasks: cloneTasks(tasks),
	}
}

// Tasks returns a copy of the cached task list.
func (b *BoardCache) Tasks() []database.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneTasks(b.tasks)
}

// MoveTask applies the move locally, dispatches it, and reconciles:
// on success the target column is refetched and adopted as truth, on
// failure the pre-move snapshot is restored exactly.
func (b *BoardCache) MoveTask(ctx context.Context, taskID, columnID string, position int) error {
	b.mu.Lock()
	b.pending = cloneTasks(b.tasks)
	for i := range b.tasks {
		if b.tasks[i].ID != taskID {
			continue
		}
		b.tasks[i].ColumnID = columnID
		b.tasks[i].Position = position
		if status := statusForColumn(columnID); status != "" {
			b.tasks[i].Status = status
		}
		break
	}
	b.mu.Unlock()

	if _, err := b.api.MoveTask(ctx, taskID, columnID, position); err != nil {
		b.rollback()
		return err
	}

	fresh, err := b.api.Tasks(ctx, columnID)
	if err != nil {
		b.rollback()
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil

	// Adopt the server's view of the target column; untouched columns
	// keep their cached entries.
	kept := fresh
	for _, task := range b.tasks {
		if task.ColumnID != columnID && task.ID != taskID {
			kept = append(kept, task)
		}
	}
	b.tasks = kept
	return nil
}

func (b *BoardCache) rollback() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		b.tasks = b.pending
		b.pending = nil
	}
}

func cloneTasks(tasks []database.Task) []database.Task {
	out := make([]database.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task
		if task.Tags != nil {
			out[i].Tags = append(database.TagList{}, task.Tags...)
		}
	}
	return out
}
