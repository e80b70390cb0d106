package handlers

import (
	"github.com/gorilla/mux"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/services"
)

// RouterConfig collects the dependencies the API surface needs.
// AllowedOrigins gates WebSocket upgrades; it should match the CORS
// configuration wrapped around the router.
type RouterConfig struct {
	Store          database.Store
	AuthService    *services.AuthService
	Assistant      *services.Assistant
	Hub            *services.Hub
	AllowedOrigins []string
}

// NewRouter builds the full REST surface. Everything except register
// and login sits behind the auth gate.
func NewRouter(cfg RouterConfig) *mux.Router {
	authHandler := NewAuthHandler(cfg.AuthService, cfg.Store)
	boardHandler := NewBoardHandler(cfg.Store, cfg.Hub)
	taskHandler := NewTaskHandler(cfg.Store, cfg.Hub)
	collabHandler := NewCollabHandler(cfg.Store, cfg.Hub)
	aiHandler := NewAIHandler(cfg.Assistant)
	middleware := NewAuthMiddleware(cfg.AuthService)

	r := mux.NewRouter()

	// Public auth routes
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Everything else requires a live session
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods("PUT")

	api.HandleFunc("/boards", boardHandler.ListBoards).Methods("GET")
	api.HandleFunc("/boards", boardHandler.CreateBoard).Methods("POST")
	api.HandleFunc("/boards/{id}", boardHandler.GetBoard).Methods("GET")
	api.HandleFunc("/boards/{id}", boardHandler.UpdateBoard).Methods("PUT")
	api.HandleFunc("/boards/{id}", boardHandler.DeleteBoard).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/columns", boardHandler.ListColumns).Methods("GET")

	api.HandleFunc("/columns", boardHandler.CreateColumn).Methods("POST")
	api.HandleFunc("/columns/{id}", boardHandler.UpdateColumn).Methods("PUT")
	api.HandleFunc("/columns/{id}", boardHandler.DeleteColumn).Methods("DELETE")
	api.HandleFunc("/columns/{columnId}/tasks", taskHandler.ListTasks).Methods("GET")

	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/move", taskHandler.MoveTask).Methods("POST")
	api.HandleFunc("/tasks/{taskId}/comments", collabHandler.ListComments).Methods("GET")
	api.HandleFunc("/tasks/{taskId}/dependencies", collabHandler.ListDependencies).Methods("GET")

	api.HandleFunc("/comments", collabHandler.CreateComment).Methods("POST")
	api.HandleFunc("/comments/{id}", collabHandler.DeleteComment).Methods("DELETE")
	api.HandleFunc("/dependencies", collabHandler.CreateDependency).Methods("POST")
	api.HandleFunc("/dependencies/{id}", collabHandler.DeleteDependency).Methods("DELETE")

	api.HandleFunc("/ai/suggestions", aiHandler.Suggestions).Methods("POST")
	api.HandleFunc("/ai/optimize-board", aiHandler.OptimizeBoard).Methods("POST")

	if cfg.Hub != nil {
		wsHandler := NewWSHandler(cfg.Hub, cfg.AllowedOrigins)
		api.HandleFunc("/ws", wsHandler.Subscribe)
	}

	return r
}
