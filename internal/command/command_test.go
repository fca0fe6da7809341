package command

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
	"github.com/roundtable-games/avalon/internal/roles"
)

func testRoom(t *testing.T, names ...string) (*lobby.Room, []*lobby.Player) {
	t.Helper()
	reg := lobby.NewRegistry(lobby.Options{Rand: rand.New(rand.NewSource(9))})
	room, host, err := reg.Create(lobby.CreateParams{HostName: names[0]})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	players := []*lobby.Player{host}
	for _, name := range names[1:] {
		p, err := room.AddPlayer(name)
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		players = append(players, p)
	}
	return room, players
}

func TestParseAliases(t *testing.T) {
	tests := []struct {
		line string
		verb string
		args int
	}{
		{"yeet", "approve", 0},
		{"sab", "fail", 0},
		{"picc alice bob", "pick", 2},
		{"shoot alice", "assassinate", 1},
		{"investigate bob", "lady", 1},
		{"begin", "start", 0},
		{"prod", "poke", 0},
		{"chars", "roles", 0},
		{"NEW", "create", 0},
	}
	for _, tt := range tests {
		verb, args, err := Parse(tt.line)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.line, err)
			continue
		}
		if verb != tt.verb || len(args) != tt.args {
			t.Errorf("Parse(%q) = %q/%d args, want %q/%d", tt.line, verb, len(args), tt.verb, tt.args)
		}
	}
	if _, _, err := Parse("frobnicate"); err == nil {
		t.Error("unknown verb accepted")
	}
	if _, _, err := Parse("  "); err == nil {
		t.Error("blank line accepted")
	}
}

func TestParseAnswer(t *testing.T) {
	for _, s := range []string{"yes", "Y", " yeah ", "yeet"} {
		if yes, ok := ParseAnswer(s); !ok || !yes {
			t.Errorf("ParseAnswer(%q) = %v/%v, want yes", s, yes, ok)
		}
	}
	for _, s := range []string{"no", "nah", "NOPE"} {
		if yes, ok := ParseAnswer(s); !ok || yes {
			t.Errorf("ParseAnswer(%q) = %v/%v, want no", s, yes, ok)
		}
	}
	if _, ok := ParseAnswer("maybe"); ok {
		t.Error("ParseAnswer accepted an equivocation")
	}
}

func TestDispatcherLobbyFlow(t *testing.T) {
	room, players := testRoom(t, "alice", "bob", "carol", "dave", "erin")
	d := &Dispatcher{Room: room, Rand: rand.New(rand.NewSource(1))}
	ctx := context.Background()

	for _, p := range players[1:] {
		res := d.Execute(ctx, Request{Player: p.ID, Name: p.Name, Line: "join"})
		if res.Reply != "" {
			t.Fatalf("join by %s replied %q", p.Name, res.Reply)
		}
		if len(res.Events) != 1 || res.Events[0].Type != engine.EventPlayerJoined {
			t.Fatalf("join events = %v", res.Events)
		}
	}

	res := d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "enable lady"})
	if res.Reply != "" || len(res.Events) == 0 {
		t.Fatalf("enable lady: %+v", res)
	}
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "enable excalibur"})
	if !strings.Contains(res.Reply, "unrecognized feature") {
		t.Errorf("bad feature reply = %q", res.Reply)
	}
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "merge morgana mordred"})
	if res.Reply != "" {
		t.Fatalf("merge replied %q", res.Reply)
	}

	res = d.Execute(ctx, Request{Player: players[1].ID, Name: "bob", Line: "start"})
	if res.Reply == "" {
		t.Error("non-owner start produced no reply")
	}
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "start"})
	if res.Reply != "" {
		t.Fatalf("start replied %q", res.Reply)
	}
	if room.Match().Phase() != engine.PhaseTeamBuilding {
		t.Fatalf("phase = %v after start", room.Match().Phase())
	}

	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "info"})
	if !strings.Contains(res.Reply, "team_building") {
		t.Errorf("info output does not name the phase: %q", res.Reply)
	}
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "poke"})
	if !strings.Contains(res.Reply, "pick the team") {
		t.Errorf("poke output = %q", res.Reply)
	}
}

func TestDispatcherCancelConfirmation(t *testing.T) {
	room, players := testRoom(t, "alice", "bob")
	ctx := context.Background()

	answer := false
	d := &Dispatcher{
		Room: room,
		Confirm: ConfirmFunc(func(context.Context, engine.PlayerID, string) bool {
			return answer
		}),
	}

	res := d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "cancel"})
	if res.Reply != "cancel aborted" {
		t.Errorf("declined cancel reply = %q", res.Reply)
	}
	if room.Match().Phase() == engine.PhaseFinished {
		t.Fatal("match canceled despite a declined confirmation")
	}

	answer = true
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "cancel"})
	if res.Reply != "" {
		t.Errorf("confirmed cancel reply = %q", res.Reply)
	}
	if room.Match().Phase() != engine.PhaseFinished {
		t.Fatal("match not canceled after confirmation")
	}

	// With the match over, create deals a fresh one.
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "create"})
	if res.Announce == "" || !res.Ping {
		t.Errorf("create result = %+v, want announce with ping", res)
	}
	if room.Match().Phase() != engine.PhaseLobby {
		t.Error("create did not open a fresh lobby")
	}
	res = d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "create"})
	if res.Reply == "" {
		t.Error("second create produced no error reply")
	}
}

func TestResolvePlayer(t *testing.T) {
	room, players := testRoom(t, "alice", "bob", "bonnie")
	d := &Dispatcher{Room: room}

	id, err := d.resolvePlayer("ALICE")
	if err != nil || id != players[0].ID {
		t.Errorf("exact match: %v, %v", id, err)
	}
	id, err = d.resolvePlayer("bon")
	if err != nil || id != players[2].ID {
		t.Errorf("prefix match: %v, %v", id, err)
	}
	if _, err := d.resolvePlayer("b"); err == nil {
		t.Error("ambiguous prefix resolved")
	}
	if _, err := d.resolvePlayer("zed"); err == nil {
		t.Error("unknown name resolved")
	}
	// Exact wins even when it prefixes another name.
	id, err = d.resolvePlayer("bob")
	if err != nil || id != players[1].ID {
		t.Errorf("exact-over-prefix: %v, %v", id, err)
	}
}

func TestParseStatsFilter(t *testing.T) {
	f, err := ParseStatsFilter([]string{"player:alice", "role:merlin", "since:2026-01-01", "until:2026-06-30"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.PlayerName != "alice" || f.Role == nil || *f.Role != roles.Merlin {
		t.Errorf("filter = %+v", f)
	}
	if f.Since == nil || f.Until == nil || !f.Until.After(*f.Since) {
		t.Errorf("date range = %v .. %v", f.Since, f.Until)
	}

	f, err = ParseStatsFilter([]string{"evil"})
	if err != nil || f.Alignment == nil || *f.Alignment != roles.Evil {
		t.Errorf("alignment filter = %+v, %v", f, err)
	}

	f, err = ParseStatsFilter([]string{"merlin"})
	if err != nil || f.Role == nil || *f.Role != roles.Merlin {
		t.Errorf("bare role filter = %+v, %v", f, err)
	}

	f, err = ParseStatsFilter([]string{"dave"})
	if err != nil || f.PlayerName != "dave" {
		t.Errorf("bare name filter = %+v, %v", f, err)
	}

	if _, err := ParseStatsFilter([]string{"since:not-a-date"}); err == nil {
		t.Error("bad date accepted")
	}
}
