package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"github.com/kanbanlab/kanban-app/database"
	"github.com/kanbanlab/kanban-app/handlers"
	"github.com/kanbanlab/kanban-app/services"
)

func main() {
	// Load environment variables from .env file, if present
	if err := LoadEnv(".env"); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	// Initialize the store
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize services
	authService := services.NewAuthService(store, services.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		CookieName: cfg.SessionCookieName,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	})
	assistant := services.NewAssistant(store, services.AssistantConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if !assistant.Enabled() {
		log.Println("AI assistant disabled: no API key configured")
	}

	// Board event hub
	hub := services.NewHub()
	go hub.Run()

	// Periodic expired-session sweep; lookups already evict lazily.
	if cfg.SessionSweep > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SessionSweep)
			defer ticker.Stop()
			for range ticker.C {
				if err := authService.SweepExpiredSessions(context.Background()); err != nil {
					log.Printf("Session sweep failed: %v", err)
				}
			}
		}()
	}

	// Setup router
	r := handlers.NewRouter(handlers.RouterConfig{
		Store:          store,
		AuthService:    authService,
		Assistant:      assistant,
		Hub:            hub,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s (driver: %s)", cfg.Port, cfg.DatabaseDriver)
	log.Fatal(server.ListenAndServe())
}

func openStore(cfg Config) (database.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		log.Println("Using in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	}
	return database.NewSQLiteStore(cfg.DatabaseDSN)
}
