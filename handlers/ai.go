package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kanbanlab/kanban-app/services"
)

// AIHandler exposes the assistant endpoints.
type AIHandler struct {
	assistant *services.Assistant
}

func NewAIHandler(assistant *services.Assistant) *AIHandler {
	return &AIHandler{assistant: assistant}
}

func (h *AIHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	boardID, ok := decodeBoardID(w, r)
	if !ok {
		return
	}

	out, err := h.assistant.Suggestions(r.Context(), boardID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, out)
}

func (h *AIHandler) OptimizeBoard(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	boardID, ok := decodeBoardID(w, r)
	if !ok {
		return
	}

	out, err := h.assistant.OptimizeBoard(r.Context(), boardID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, out)
}

func decodeBoardID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		BoardID string `json:"boardId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return "", false
	}
	if req.BoardID == "" {
		writeMessage(w, http.StatusBadRequest, "boardId is required")
		return "", false
	}
	return req.BoardID, true
}

// writeRaw forwards the model's JSON verbatim.
func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
