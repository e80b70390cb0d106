package handlers

import (
	"context"
	"net/http"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware is the single authorization boundary: it resolves the
// session cookie to a user and threads that user into the request
// context. Everything past it trusts the context value.
type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := m.authService.SessionIDFromRequest(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := m.authService.UserBySession(r.Context(), sessionID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser pulls the authenticated user out of the request context.
func currentUser(r *http.Request) (database.User, bool) {
	user, ok := r.Context().Value(userContextKey).(database.User)
	return user, ok
}
