package lobby

import (
	"math/rand"
	"testing"

	"github.com/roundtable-games/avalon/internal/engine"
)

func testRegistry() *Registry {
	return NewRegistry(Options{Rand: rand.New(rand.NewSource(5))})
}

func TestCreateAndJoinRoom(t *testing.T) {
	g := testRegistry()
	room, host, err := g.Create(CreateParams{HostName: "alice", Password: "sekrit"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.Code) != 6 {
		t.Errorf("room code %q, want 6 characters", room.Code)
	}
	if !host.Host {
		t.Error("host identity not flagged as host")
	}
	if room.Match() == nil || room.Match().Phase() != engine.PhaseLobby {
		t.Fatal("room did not start with a lobby-phase match")
	}
	if !room.Match().HasPlayer(host.ID) {
		t.Error("host is not part of the initial match")
	}

	if err := room.CheckPassword("wrong"); err == nil {
		t.Error("wrong password accepted")
	}
	if err := room.CheckPassword("sekrit"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}

	got, ok := g.Get(room.Code)
	if !ok || got != room {
		t.Fatal("room not retrievable by code")
	}
	if _, ok := g.Get("NOPE42"); ok {
		t.Error("unknown code resolved to a room")
	}
}

func TestAddPlayerRejectsDuplicateNames(t *testing.T) {
	g := testRegistry()
	room, _, err := g.Create(CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := room.AddPlayer("bob"); err != nil {
		t.Fatalf("add player: %v", err)
	}
	if _, err := room.AddPlayer("bob"); err == nil {
		t.Error("duplicate display name accepted")
	}
	if _, err := room.AddPlayer(""); err == nil {
		t.Error("empty display name accepted")
	}
	players := room.Players()
	if len(players) != 2 || players[0].Name != "alice" {
		t.Errorf("players = %v, want host first", players)
	}
}

func TestNewGameRequiresFinishedMatch(t *testing.T) {
	g := testRegistry()
	room, host, err := g.Create(CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := room.NewGame(host.ID); err == nil {
		t.Error("new game allowed while the first match is still open")
	}
	if _, err := room.Match().Cancel(host.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	m, err := room.NewGame(host.ID)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if m.Phase() != engine.PhaseLobby || room.Match() != m {
		t.Error("room did not swap in the fresh match")
	}
	if _, err := room.NewGame("stranger"); err == nil {
		t.Error("unregistered player allowed to open a game")
	}
}

func TestAllowPingThrottles(t *testing.T) {
	g := testRegistry()
	room, _, err := g.Create(CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !room.AllowPing() {
		t.Fatal("first ping denied")
	}
	if room.AllowPing() {
		t.Error("second ping allowed inside the throttle window")
	}
}

func TestRemoveRoom(t *testing.T) {
	g := testRegistry()
	room, _, err := g.Create(CreateParams{HostName: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Count() != 1 {
		t.Fatalf("count = %d, want 1", g.Count())
	}
	g.Remove(room.Code)
	if _, ok := g.Get(room.Code); ok {
		t.Error("removed room still retrievable")
	}
}
