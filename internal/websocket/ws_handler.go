package websocket

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roundtable-games/avalon/internal/auth"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
)

// rateLimitKeyFromRequest returns a key for rate limiting (e.g. client IP).
func rateLimitKeyFromRequest(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// WSHandler upgrades authenticated room connections.
type WSHandler struct {
	hub         *Hub
	registry    *lobby.Registry
	tokenSecret []byte
}

// NewWSHandler creates a new WSHandler. With an empty tokenSecret every
// connection is rejected.
func NewWSHandler(hub *Hub, registry *lobby.Registry, tokenSecret []byte) *WSHandler {
	return &WSHandler{
		hub:         hub,
		registry:    registry,
		tokenSecret: tokenSecret,
	}
}

// HandleRoomWebSocket handles GET /ws/rooms/{code}. The client presents
// the token from room create/join via query param or Authorization header.
func (h *WSHandler) HandleRoomWebSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, prefix) {
			token = strings.TrimSpace(v[len(prefix):])
		}
	}
	if token == "" || len(h.tokenSecret) == 0 {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		log.Printf("websocket auth: code=%s token verification failed: %v", code, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.RoomCode != code {
		http.Error(w, "room does not match token", http.StatusUnauthorized)
		return
	}
	room, ok := h.registry.Get(code)
	if !ok {
		log.Printf("websocket: room not found code=%s", code)
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	player, ok := room.Player(engine.PlayerID(claims.PlayerID))
	if !ok {
		log.Printf("websocket: code=%s player_id=%s not registered in room", code, claims.PlayerID)
		http.Error(w, "player not in room", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan *OutgoingMessage, 256),
		RoomCode:     code,
		PlayerID:     player.ID,
		Name:         player.Name,
		RateLimitKey: rateLimitKeyFromRequest(r),
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}
