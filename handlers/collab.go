package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

// CollabHandler serves the comment and dependency routes.
type CollabHandler struct {
	store database.Store
	hub   *services.Hub
}

func NewCollabHandler(store database.Store, hub *services.Hub) *CollabHandler {
	return &CollabHandler{store: store, hub: hub}
}

func (h *CollabHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	taskID := mux.Vars(r)["taskId"]

	// The task itself must exist and be the caller's own.
	if _, err := h.store.GetTask(r.Context(), taskID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	comments, err := h.store.ListComments(r.Context(), taskID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CollabHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		TaskID  string `json:"taskId"`
		Content string `json:"content"`
		Author  string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.TaskID == "" || req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "taskId and content are required")
		return
	}

	// The task must be the caller's own.
	if _, err := h.store.GetTask(r.Context(), req.TaskID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.store.CreateComment(r.Context(), database.Comment{
		TaskID:  req.TaskID,
		UserID:  user.ID,
		Content: req.Content,
		Author:  req.Author,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Publish(user.ID, services.BoardEvent{Type: "comment.created", Data: comment})
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CollabHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	if err := h.store.DeleteComment(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollabHandler) ListDependencies(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	taskID := mux.Vars(r)["taskId"]

	if _, err := h.store.GetTask(r.Context(), taskID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	deps, err := h.store.ListDependencies(r.Context(), taskID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

func (h *CollabHandler) CreateDependency(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		FromTaskID string `json:"fromTaskId"`
		ToTaskID   string `json:"toTaskId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.FromTaskID == "" || req.ToTaskID == "" {
		writeMessage(w, http.StatusBadRequest, "fromTaskId and toTaskId are required")
		return
	}

	// Both endpoints must belong to the caller.
	if _, err := h.store.GetTask(r.Context(), req.FromTaskID, user.ID); err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.store.GetTask(r.Context(), req.ToTaskID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	dep, err := h.store.CreateDependency(r.Context(), database.Dependency{
		FromTaskID: req.FromTaskID,
		ToTaskID:   req.ToTaskID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

func (h *CollabHandler) DeleteDependency(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	if err := h.store.DeleteDependency(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
