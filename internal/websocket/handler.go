package websocket

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roundtable-games/avalon/internal/command"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
	"github.com/roundtable-games/avalon/internal/ratelimit"
)

// GameHandlerConfig tunes the transport behavior.
type GameHandlerConfig struct {
	// ConfirmTimeout bounds yes/no prompts; expiry answers no.
	ConfirmTimeout time.Duration
	// RevealDelay is the pause before suspenseful events.
	RevealDelay time.Duration
	// EphemeralTTL is how long retractable messages live before the
	// retract envelope goes out.
	EphemeralTTL time.Duration
}

// GameHandler routes chat and commands between clients and their room's
// match, and renders engine events into envelopes.
type GameHandler struct {
	hub      *Hub
	registry *lobby.Registry
	stats    command.StatsProvider
	results  ResultSink
	limiter  ratelimit.Limiter
	rand     *rand.Rand
	cfg      GameHandlerConfig

	mu       sync.Mutex
	confirms map[string]chan bool
}

// ResultSink receives the stats records of a finished match. Implemented
// by store.RecordStore; nil drops results.
type ResultSink interface {
	AppendResults(ctx context.Context, results []engine.PlayerResult) error
}

// NewGameHandler creates the handler. stats and results may be nil when
// the server runs without a database; limiter may be nil to disable rate
// limiting.
func NewGameHandler(hub *Hub, registry *lobby.Registry, stats command.StatsProvider, results ResultSink, limiter ratelimit.Limiter, cfg GameHandlerConfig) *GameHandler {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = command.DefaultConfirmTimeout
	}
	return &GameHandler{
		hub:      hub,
		registry: registry,
		stats:    stats,
		results:  results,
		limiter:  limiter,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:      cfg,
		confirms: make(map[string]chan bool),
	}
}

// HandleMessage processes one inbound client envelope.
func (h *GameHandler) HandleMessage(client *Client, msg *ClientInMessage) {
	if msg == nil || len(msg.Type) > MaxClientMessageTypeLength || !ValidClientMessageTypes[msg.Type] {
		h.sendError(client, "unsupported message type")
		return
	}
	room, ok := h.registry.Get(client.RoomCode)
	if !ok {
		h.sendError(client, "room no longer exists")
		return
	}

	switch msg.Type {
	case ClientMessageTypeChat:
		h.handleChat(client, room, msg)
	case ClientMessageTypeAnswer:
		h.handleAnswer(client, msg)
	case ClientMessageTypeCommand:
		if !h.allow(client) {
			return
		}
		line, _ := msg.Payload["line"].(string)
		if line == "" {
			h.sendError(client, "empty command")
			return
		}
		// Commands run off the read loop: a confirmation prompt waits for
		// an answer that arrives through the same connection.
		go h.runCommand(client, room, line)
	case ClientMessageTypeSyncState:
		h.sendState(client, room)
	}
}

// HandleDisconnect resolves any confirmation the leaving player still has
// pending; the default answer is no.
func (h *GameHandler) HandleDisconnect(client *Client) {
	key := confirmKey(client.RoomCode, client.PlayerID)
	h.mu.Lock()
	if ch, ok := h.confirms[key]; ok {
		select {
		case ch <- false:
		default:
		}
		delete(h.confirms, key)
	}
	h.mu.Unlock()
}

func (h *GameHandler) handleChat(client *Client, room *lobby.Room, msg *ClientInMessage) {
	if !h.allow(client) {
		return
	}
	text, _ := msg.Payload["message"].(string)
	if len(text) > MaxChatMessageLength {
		text = text[:MaxChatMessageLength]
	}
	if text == "" {
		return
	}
	m := room.Match()
	if m.Muted() {
		switch m.Phase() {
		case engine.PhaseLobby, engine.PhaseFinished:
		default:
			h.sendError(client, "this is a silent game, hold the table talk until it ends")
			return
		}
	}
	h.hub.BroadcastExcept(client.RoomCode, &ServerEnvelope{
		Type:  ServerTypeEvent,
		Event: ServerEventChat,
		Payload: map[string]interface{}{
			"name":    client.Name,
			"message": text,
		},
	}, client)
}

func (h *GameHandler) handleAnswer(client *Client, msg *ClientInMessage) {
	text, _ := msg.Payload["answer"].(string)
	yes, ok := command.ParseAnswer(text)
	if !ok {
		h.sendError(client, "answer yes or no")
		return
	}
	key := confirmKey(client.RoomCode, client.PlayerID)
	h.mu.Lock()
	ch, pending := h.confirms[key]
	h.mu.Unlock()
	if !pending {
		h.sendError(client, "nothing to answer right now")
		return
	}
	select {
	case ch <- yes:
	default:
	}
}

func (h *GameHandler) runCommand(client *Client, room *lobby.Room, line string) {
	d := &command.Dispatcher{
		Room:    room,
		Confirm: h.confirmerFor(client.RoomCode),
		Stats:   h.stats,
		Rand:    h.rand,
	}
	res := d.Execute(context.Background(), command.Request{
		Player: client.PlayerID,
		Name:   client.Name,
		Line:   line,
	})
	h.deliver(client, room, res)
}

// deliver pushes a command result out: the private reply, the announce
// line, then the engine events in order.
func (h *GameHandler) deliver(client *Client, room *lobby.Room, res command.Result) {
	if res.Reply != "" {
		h.hub.SendToPlayer(client.RoomCode, client.PlayerID, &ServerEnvelope{
			Type:    ServerTypeEvent,
			Event:   ServerEventSystem,
			Payload: map[string]interface{}{"text": res.Reply},
		})
	}
	if res.Announce != "" {
		h.hub.Broadcast(client.RoomCode, &ServerEnvelope{
			Type:    ServerTypeEvent,
			Event:   ServerEventSystem,
			Payload: map[string]interface{}{"text": res.Announce, "ping": res.Ping},
		})
	}

	gameOver := false
	for _, e := range res.Events {
		if e.Suspense && h.cfg.RevealDelay > 0 {
			time.Sleep(h.cfg.RevealDelay)
		}
		payload := map[string]interface{}{
			"event": string(e.Type),
			"text":  command.RenderEvent(e),
			"data":  e.Payload,
		}
		var messageID string
		if e.Ephemeral {
			messageID = uuid.NewString()
			payload["message_id"] = messageID
		}
		envelope := &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventGame, Payload: payload}
		if e.To != "" {
			h.hub.SendToPlayer(client.RoomCode, e.To, envelope)
		} else {
			h.hub.Broadcast(client.RoomCode, envelope)
		}
		if messageID != "" {
			h.scheduleRetract(client.RoomCode, messageID)
		}
		if e.Type == engine.EventGameOver {
			gameOver = true
		}
	}

	if gameOver && h.results != nil {
		results := room.Match().Results()
		if err := h.results.AppendResults(context.Background(), results); err != nil {
			log.Printf("persist match results room=%s: %v", client.RoomCode, err)
		}
	}
}

func (h *GameHandler) scheduleRetract(roomCode, messageID string) {
	ttl := h.cfg.EphemeralTTL
	if ttl <= 0 {
		return
	}
	time.AfterFunc(ttl, func() {
		h.hub.Broadcast(roomCode, &ServerEnvelope{
			Type:    ServerTypeEvent,
			Event:   ServerEventRetract,
			Payload: map[string]interface{}{"message_id": messageID},
		})
	})
}

func (h *GameHandler) sendState(client *Client, room *lobby.Room) {
	info := room.Match().Info()
	h.hub.SendToPlayer(client.RoomCode, client.PlayerID, &ServerEnvelope{
		Type:  ServerTypeState,
		Event: ServerEventState,
		Payload: map[string]interface{}{
			"room_code": client.RoomCode,
			"info":      info,
			"text":      command.RenderInfo(info),
		},
	})
}

func (h *GameHandler) sendError(client *Client, message string) {
	select {
	case client.send <- &OutgoingMessage{Envelope: &ServerEnvelope{
		Type:    ServerTypeError,
		Payload: map[string]interface{}{"message": message},
	}}:
	default:
		log.Printf("could not send error to client (channel full)")
	}
}

func (h *GameHandler) allow(client *Client) bool {
	if h.limiter == nil || client.RateLimitKey == "" {
		return true
	}
	// Scoping the key to the room keeps a player's chat budget per match,
	// so leaving one room does not carry a depleted window into the next.
	key := client.RateLimitKey
	if client.RoomCode != "" {
		key = client.RoomCode + "|" + key
	}
	allowed, _ := h.limiter.Allow(key)
	if !allowed {
		h.sendError(client, "rate limit exceeded; try again later")
	}
	return allowed
}

// confirmerFor builds the Confirmer the dispatcher prompts through. The
// prompt goes out privately; the answer comes back as an "answer"
// envelope or not at all.
func (h *GameHandler) confirmerFor(roomCode string) command.Confirmer {
	return command.ConfirmFunc(func(ctx context.Context, player engine.PlayerID, prompt string) bool {
		key := confirmKey(roomCode, player)
		ch := make(chan bool, 1)
		h.mu.Lock()
		if _, exists := h.confirms[key]; exists {
			h.mu.Unlock()
			return false
		}
		h.confirms[key] = ch
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.confirms, key)
			h.mu.Unlock()
		}()

		h.hub.SendToPlayer(roomCode, player, &ServerEnvelope{
			Type:  ServerTypeEvent,
			Event: ServerEventConfirm,
			Payload: map[string]interface{}{
				"prompt":          prompt,
				"timeout_seconds": int(h.cfg.ConfirmTimeout.Seconds()),
			},
		})

		select {
		case yes := <-ch:
			return yes
		case <-time.After(h.cfg.ConfirmTimeout):
			return false
		case <-ctx.Done():
			return false
		}
	})
}

func confirmKey(roomCode string, player engine.PlayerID) string {
	return roomCode + "|" + string(player)
}
