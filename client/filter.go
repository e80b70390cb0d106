package client

import (
	"strings"

	"github.com/kanbanlab/kanban-app/database"
)

// MatchTask reports whether a task matches a search query: the query is
// a case-insensitive substring of the title, the description (when
// present), or any one tag. An empty query matches everything.
func MatchTask(task database.Task, query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}

	if strings.Contains(strings.ToLower(task.Title), q) {
		return true
	}
	if task.Description != nil && strings.Contains(strings.ToLower(*task.Description), q) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FilterTasks keeps the tasks matching the query, in order.
func FilterTasks(tasks []database.Task, query string) []database.Task {
	out := []database.Task{}
	for _, task := range tasks {
		if MatchTask(task, query) {
			out = append(out, task)
		}
	}
	return out
}
