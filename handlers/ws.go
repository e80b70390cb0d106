package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/kanbanlab/kanban-app/services"
)

// WSHandler upgrades authenticated connections onto the board event feed.
type WSHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler builds the upgrade handler. allowedOrigins mirrors the
// CORS configuration; the cors middleware does not cover WebSocket
// handshakes, so the upgrader checks the Origin header itself.
func NewWSHandler(hub *services.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
	}
}

// originAllowed accepts requests with no Origin header (non-browser
// clients) and browser requests from a configured origin.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}

func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// A user may hold several connections (tabs, devices); each gets
	// every event.
	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: user.ID,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
