// Package websocket carries the room chat and command channel over
// gorilla/websocket. The hub fans envelopes out per room; the message
// handler feeds chat and commands into the game.
package websocket

import (
	"log"
	"sync"

	"github.com/roundtable-games/avalon/internal/engine"
)

// Hub maintains the set of active clients and fans out envelopes.
type Hub struct {
	// Registered clients by room code -> client set
	rooms map[string]map[*Client]bool

	// Outbound envelopes from the message handler
	broadcast chan *BroadcastMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Handler for inbound client messages
	handler MessageHandler

	mu sync.RWMutex
}

// MessageHandler processes inbound client envelopes.
type MessageHandler interface {
	HandleMessage(client *Client, msg *ClientInMessage)
	HandleDisconnect(client *Client)
}

// BroadcastMessage addresses one envelope. Only narrows delivery to a
// single player's connections; Exclude drops one client from a broadcast.
type BroadcastMessage struct {
	RoomCode string
	Envelope *ServerEnvelope
	Only     engine.PlayerID
	Exclude  *Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetHandler sets the inbound message handler.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) getHandler() MessageHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.RoomCode] == nil {
				h.rooms[client.RoomCode] = make(map[*Client]bool)
			}
			h.rooms[client.RoomCode][client] = true
			total := len(h.rooms[client.RoomCode])
			h.mu.Unlock()
			log.Printf("ws client registered room=%s player_id=%s total=%d", client.RoomCode, client.PlayerID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.RoomCode]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.RoomCode)
					}
				}
			}
			h.mu.Unlock()
			if handler := h.getHandler(); handler != nil {
				handler.HandleDisconnect(client)
			}
			log.Printf("ws client unregistered room=%s player_id=%s", client.RoomCode, client.PlayerID)

		case message := <-h.broadcast:
			h.mu.RLock()
			room := h.rooms[message.RoomCode]
			for client := range room {
				if message.Only != "" && client.PlayerID != message.Only {
					continue
				}
				if message.Exclude != nil && client == message.Exclude {
					continue
				}
				select {
				case client.send <- &OutgoingMessage{Envelope: message.Envelope}:
				default:
					close(client.send)
					delete(room, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an envelope to every client in a room.
func (h *Hub) Broadcast(roomCode string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{RoomCode: roomCode, Envelope: envelope}
}

// BroadcastExcept sends an envelope to every client in a room but one.
func (h *Hub) BroadcastExcept(roomCode string, envelope *ServerEnvelope, exclude *Client) {
	h.broadcast <- &BroadcastMessage{RoomCode: roomCode, Envelope: envelope, Exclude: exclude}
}

// SendToPlayer sends an envelope to every connection one player holds in
// a room.
func (h *Hub) SendToPlayer(roomCode string, player engine.PlayerID, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{RoomCode: roomCode, Envelope: envelope, Only: player}
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
