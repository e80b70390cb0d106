package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps service and store errors onto the HTTP taxonomy.
// Anything unrecognized becomes a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConflict):
		writeMessage(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrNoAPIKey):
		writeMessage(w, http.StatusBadRequest, "AI API key not configured")
	case errors.Is(err, services.ErrUpstream):
		writeMessage(w, http.StatusInternalServerError, "AI request failed")
	default:
		log.Printf("Unexpected error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
