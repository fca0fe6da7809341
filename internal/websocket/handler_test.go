package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/roundtable-games/avalon/internal/command"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
)

func testHandlerSetup(t *testing.T) (*Hub, *GameHandler, *lobby.Room, *lobby.Player) {
	t.Helper()
	hub := NewHub()
	go hub.Run()

	registry := lobby.NewRegistry(lobby.Options{})
	room, host, err := registry.Create(lobby.CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	handler := NewGameHandler(hub, registry, nil, nil, nil, GameHandlerConfig{
		ConfirmTimeout: 50 * time.Millisecond,
	})
	hub.SetHandler(handler)
	return hub, handler, room, host
}

func register(t *testing.T, hub *Hub, room string, p *lobby.Player) *Client {
	t.Helper()
	c := &Client{
		hub:      hub,
		send:     make(chan *OutgoingMessage, 256),
		RoomCode: room,
		PlayerID: p.ID,
		Name:     p.Name,
	}
	hub.register <- c
	time.Sleep(10 * time.Millisecond)
	return c
}

func waitEnvelope(t *testing.T, c *Client, event string) *ServerEnvelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case out := <-c.send:
			if out.Envelope.Event == event {
				return out.Envelope
			}
		case <-deadline:
			t.Fatalf("no %q envelope arrived", event)
		}
	}
}

func TestHandlerRejectsUnknownMessageTypes(t *testing.T) {
	hub, handler, room, host := testHandlerSetup(t)
	client := register(t, hub, room.Code, host)

	handler.HandleMessage(client, &ClientInMessage{Type: "teleport"})
	out := <-client.send
	if out.Envelope.Type != ServerTypeError {
		t.Errorf("envelope = %+v, want an error", out.Envelope)
	}
}

func TestHandlerCommandFlow(t *testing.T) {
	hub, handler, room, host := testHandlerSetup(t)
	client := register(t, hub, room.Code, host)

	handler.HandleMessage(client, &ClientInMessage{
		Type:    ClientMessageTypeCommand,
		Payload: map[string]interface{}{"line": "ping"},
	})
	env := waitEnvelope(t, client, ServerEventSystem)
	if env.Payload["text"] != "pong" {
		t.Errorf("ping reply = %v", env.Payload["text"])
	}

	handler.HandleMessage(client, &ClientInMessage{Type: ClientMessageTypeSyncState})
	env = waitEnvelope(t, client, ServerEventState)
	if env.Payload["room_code"] != room.Code {
		t.Errorf("state payload = %v", env.Payload)
	}
}

func TestHandlerChatSuppressedInSilentGames(t *testing.T) {
	hub, handler, room, host := testHandlerSetup(t)
	client := register(t, hub, room.Code, host)

	names := []string{"bob", "carol", "dave", "erin"}
	for _, name := range names {
		p, err := room.AddPlayer(name)
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		if _, err := room.Match().Join(p.ID, p.Name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	if _, err := room.Match().Mute(host.ID); err != nil {
		t.Fatalf("mute: %v", err)
	}

	// Lobby chat still flows (nothing comes back to the sender, and no
	// error either).
	handler.HandleMessage(client, &ClientInMessage{
		Type:    ClientMessageTypeChat,
		Payload: map[string]interface{}{"message": "hello"},
	})
	time.Sleep(20 * time.Millisecond)
	if len(client.send) != 0 {
		t.Fatalf("lobby chat produced %d envelopes for the sender", len(client.send))
	}

	if _, err := room.Match().Start(context.Background(), host.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	handler.HandleMessage(client, &ClientInMessage{
		Type:    ClientMessageTypeChat,
		Payload: map[string]interface{}{"message": "so who is evil"},
	})
	out := <-client.send
	if out.Envelope.Type != ServerTypeError {
		t.Errorf("silent-game chat envelope = %+v, want an error", out.Envelope)
	}
}

func TestConfirmDefaultsToNo(t *testing.T) {
	hub, handler, room, host := testHandlerSetup(t)
	client := register(t, hub, room.Code, host)

	start := time.Now()
	yes := handler.confirmerFor(room.Code).Confirm(context.Background(), host.ID, "Sure?")
	if yes {
		t.Error("unanswered confirmation resolved to yes")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("confirmation resolved before the timeout")
	}
	waitEnvelope(t, client, ServerEventConfirm)
}

func TestConfirmAnswered(t *testing.T) {
	hub, handler, room, host := testHandlerSetup(t)
	client := register(t, hub, room.Code, host)

	done := make(chan bool, 1)
	go func() {
		done <- handler.confirmerFor(room.Code).Confirm(context.Background(), host.ID, "Cancel the current game?")
	}()
	waitEnvelope(t, client, ServerEventConfirm)

	handler.HandleMessage(client, &ClientInMessage{
		Type:    ClientMessageTypeAnswer,
		Payload: map[string]interface{}{"answer": "yes"},
	})
	select {
	case yes := <-done:
		if !yes {
			t.Error("yes answer resolved to no")
		}
	case <-time.After(time.Second):
		t.Fatal("confirmation never resolved")
	}

	// With nothing pending, an answer is just noise.
	handler.HandleMessage(client, &ClientInMessage{
		Type:    ClientMessageTypeAnswer,
		Payload: map[string]interface{}{"answer": "yes"},
	})
	out := <-client.send
	if out.Envelope.Type != ServerTypeError {
		t.Errorf("stray answer envelope = %+v, want an error", out.Envelope)
	}
}

func TestHandlerEphemeralRetraction(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	registry := lobby.NewRegistry(lobby.Options{})
	room, host, err := registry.Create(lobby.CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	handler := NewGameHandler(hub, registry, nil, nil, nil, GameHandlerConfig{
		EphemeralTTL: 30 * time.Millisecond,
	})
	hub.SetHandler(handler)
	client := register(t, hub, room.Code, host)

	handler.deliver(client, room, command.Result{Events: []engine.Event{{
		Type:      engine.EventVoteResults,
		Ephemeral: true,
		Payload:   map[string]interface{}{"votes": map[string]bool{"alice": true}},
	}}})
	env := waitEnvelope(t, client, ServerEventGame)
	id, _ := env.Payload["message_id"].(string)
	if id == "" {
		t.Fatal("ephemeral event carried no message id")
	}
	retract := waitEnvelope(t, client, ServerEventRetract)
	if retract.Payload["message_id"] != id {
		t.Errorf("retracted id %v, want %v", retract.Payload["message_id"], id)
	}
}

type recordingLimiter struct {
	keys []string
}

func (l *recordingLimiter) Allow(key string) (bool, int) {
	l.keys = append(l.keys, key)
	return true, 0
}

func TestChatLimiterKeysScopedToRoom(t *testing.T) {
	lim := &recordingLimiter{}
	handler := NewGameHandler(NewHub(), lobby.NewRegistry(lobby.Options{}), nil, nil, lim, GameHandlerConfig{})

	same := "10.0.0.1"
	handler.allow(&Client{RoomCode: "AAAA", RateLimitKey: same})
	handler.allow(&Client{RoomCode: "BBBB", RateLimitKey: same})

	if len(lim.keys) != 2 {
		t.Fatalf("limiter consulted %d times, want 2", len(lim.keys))
	}
	if lim.keys[0] != "AAAA|"+same {
		t.Errorf("key = %q, want room-scoped %q", lim.keys[0], "AAAA|"+same)
	}
	if lim.keys[0] == lim.keys[1] {
		t.Errorf("same limiter key %q across rooms", lim.keys[0])
	}
}
