package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

// canonicalStatus maps the four canonical column ids to the task status
// they imply. Custom columns never appear here, so moving into one
// leaves the status alone.
var canonicalStatus = map[string]string{
	"backlog":     database.StatusBacklog,
	"in-progress": database.StatusInProgress,
	"review":      database.StatusReview,
	"done":        database.StatusDone,
}

// TaskHandler serves task routes, including the move operation.
type TaskHandler struct {
	store database.Store
	hub   *services.Hub
}

func NewTaskHandler(store database.Store, hub *services.Hub) *TaskHandler {
	return &TaskHandler{store: store, hub: hub}
}

func (h *TaskHandler) publish(userID, eventType string, data any) {
	if h.hub != nil {
		h.hub.Publish(userID, services.BoardEvent{Type: eventType, Data: data})
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	tasks, err := h.store.ListTasks(r.Context(), mux.Vars(r)["columnId"], user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	task, err := h.store.GetTask(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		ColumnID    string           `json:"columnId"`
		Title       string           `json:"title"`
		Description *string          `json:"description"`
		Priority    string           `json:"priority"`
		Status      string           `json:"status"`
		Progress    int              `json:"progress"`
		DueDate     *time.Time       `json:"dueDate"`
		Tags        database.TagList `json:"tags"`
		Position    int              `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.ColumnID == "" || req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "columnId and title are required")
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		writeMessage(w, http.StatusBadRequest, "progress must be between 0 and 100")
		return
	}

	task, err := h.store.CreateTask(r.Context(), database.Task{
		ColumnID:    req.ColumnID,
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Progress:    req.Progress,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		Position:    req.Position,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "task.created", task)
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var patch database.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		writeMessage(w, http.StatusBadRequest, "progress must be between 0 and 100")
		return
	}

	task, err := h.store.UpdateTask(r.Context(), mux.Vars(r)["id"], patch, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "task.updated", task)
	writeJSON(w, http.StatusOK, task)
}

// MoveTask rewrites the task's column and position. When the target
// column carries one of the canonical ids the handler also mirrors the
// matching status onto the task; the store itself never couples the two
// fields.
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		ColumnID string `json:"columnId"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.ColumnID == "" {
		writeMessage(w, http.StatusBadRequest, "columnId is required")
		return
	}

	task, err := h.store.MoveTask(r.Context(), mux.Vars(r)["id"], req.ColumnID, req.Position, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if status, ok := canonicalStatus[req.ColumnID]; ok && task.Status != status {
		task, err = h.store.UpdateTask(r.Context(), task.ID, database.TaskPatch{Status: &status}, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	h.publish(user.ID, "task.moved", task)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	taskID := mux.Vars(r)["id"]

	if err := h.store.DeleteTask(r.Context(), taskID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "task.deleted", map[string]string{"id": taskID})
	w.WriteHeader(http.StatusNoContent)
}
