package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	store       database.Store
}

func NewAuthHandler(authService *services.AuthService, store database.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
	}
}

// Register creates the user, opens a session and provisions the default
// board with its four columns and welcome task.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeMessage(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "password is required")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeMessage(w, http.StatusBadRequest, "first and last name are required")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			writeMessage(w, http.StatusBadRequest, "user already exists")
			return
		}
		writeError(w, err)
		return
	}

	session, err := h.authService.OpenSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	cookie, err := h.authService.IssueCookie(session)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.store.ProvisionDefaultBoard(r.Context(), user.ID); err != nil {
		log.Printf("Error provisioning default board for %s: %v", user.ID, err)
		// Close the session again so the failed registration does not
		// leave a logged-in user with no board. The account itself
		// remains; logging in later provisions nothing, so the user
		// starts from an empty board list.
		if derr := h.authService.Logout(r.Context(), session.ID); derr != nil {
			log.Printf("Error discarding session after failed provisioning: %v", derr)
		}
		writeError(w, err)
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Login validates credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	user, session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	cookie, err := h.authService.IssueCookie(session)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Me returns the authenticated user resolved by the middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout deletes the session if one is attached; it succeeds either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := h.authService.SessionIDFromRequest(r); err == nil {
		if err := h.authService.Logout(r.Context(), sessionID); err != nil {
			writeError(w, err)
			return
		}
	}

	http.SetCookie(w, h.authService.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// UpdateProfile patches the caller's own profile fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var patch database.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user.ID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}
