package websocket

import (
	"testing"
	"time"

	"github.com/roundtable-games/avalon/internal/engine"
)

func testClient(hub *Hub, room, player string) *Client {
	return &Client{
		hub:      hub,
		send:     make(chan *OutgoingMessage, 256),
		RoomCode: room,
		PlayerID: engine.PlayerID(player),
		Name:     player,
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := testClient(hub, "ROOM1", "player-1")
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	if count := hub.RoomClientCount("ROOM1"); count != 1 {
		t.Errorf("expected 1 client in room, got %d", count)
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if count := hub.RoomClientCount("ROOM1"); count != 0 {
		t.Errorf("expected 0 clients in room after unregister, got %d", count)
	}
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := testClient(hub, "ROOM1", "player-1")
	b := testClient(hub, "ROOM1", "player-2")
	other := testClient(hub, "ROOM2", "player-3")
	for _, c := range []*Client{a, b, other} {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("ROOM1", &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventSystem})
	time.Sleep(10 * time.Millisecond)

	if len(a.send) != 1 || len(b.send) != 1 {
		t.Errorf("room clients got %d/%d messages, want 1/1", len(a.send), len(b.send))
	}
	if len(other.send) != 0 {
		t.Errorf("other room got %d messages, want 0", len(other.send))
	}
}

func TestHub_BroadcastExcept(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := testClient(hub, "ROOM1", "player-1")
	b := testClient(hub, "ROOM1", "player-2")
	hub.register <- a
	hub.register <- b
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastExcept("ROOM1", &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventChat}, a)
	time.Sleep(10 * time.Millisecond)

	if len(a.send) != 0 {
		t.Errorf("excluded client got %d messages, want 0", len(a.send))
	}
	if len(b.send) != 1 {
		t.Errorf("other client got %d messages, want 1", len(b.send))
	}
}

func TestHub_SendToPlayer(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// The target player holds two connections; a third client is someone
	// else entirely.
	a1 := testClient(hub, "ROOM1", "player-1")
	a2 := testClient(hub, "ROOM1", "player-1")
	b := testClient(hub, "ROOM1", "player-2")
	for _, c := range []*Client{a1, a2, b} {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.SendToPlayer("ROOM1", engine.PlayerID("player-1"), &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventGame})
	time.Sleep(10 * time.Millisecond)

	if len(a1.send) != 1 || len(a2.send) != 1 {
		t.Errorf("target connections got %d/%d messages, want 1/1", len(a1.send), len(a2.send))
	}
	if len(b.send) != 0 {
		t.Errorf("bystander got %d messages, want 0", len(b.send))
	}
}
