package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

// BoardHandler serves board and column routes.
type BoardHandler struct {
	store database.Store
	hub   *services.Hub
}

func NewBoardHandler(store database.Store, hub *services.Hub) *BoardHandler {
	return &BoardHandler{store: store, hub: hub}
}

func (h *BoardHandler) publish(userID, eventType string, data any) {
	if h.hub != nil {
		h.hub.Publish(userID, services.BoardEvent{Type: eventType, Data: data})
	}
}

func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	boards, err := h.store.ListBoards(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	board, err := h.store.GetBoard(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	board, err := h.store.CreateBoard(r.Context(), database.Board{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var patch database.BoardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	board, err := h.store.UpdateBoard(r.Context(), mux.Vars(r)["id"], patch, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	if err := h.store.DeleteBoard(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	columns, err := h.store.ListColumns(r.Context(), mux.Vars(r)["boardId"], user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

func (h *BoardHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req struct {
		BoardID  string `json:"boardId"`
		Title    string `json:"title"`
		Position int    `json:"position"`
		Color    string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.BoardID == "" || req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "boardId and title are required")
		return
	}

	// The board must be the caller's own.
	if _, err := h.store.GetBoard(r.Context(), req.BoardID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	column, err := h.store.CreateColumn(r.Context(), database.Column{
		BoardID:  req.BoardID,
		UserID:   user.ID,
		Title:    req.Title,
		Position: req.Position,
		Color:    req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "column.created", column)
	writeJSON(w, http.StatusCreated, column)
}

func (h *BoardHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var patch database.ColumnPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	column, err := h.store.UpdateColumn(r.Context(), mux.Vars(r)["id"], patch, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "column.updated", column)
	writeJSON(w, http.StatusOK, column)
}

func (h *BoardHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	columnID := mux.Vars(r)["id"]

	if err := h.store.DeleteColumn(r.Context(), columnID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.publish(user.ID, "column.deleted", map[string]string{"id": columnID})
	w.WriteHeader(http.StatusNoContent)
}
