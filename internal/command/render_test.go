package command

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/roles"
	"github.com/roundtable-games/avalon/internal/store"
)

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name  string
		event engine.Event
		want  string
	}{
		{
			"team building with warnings",
			engine.Event{Type: engine.EventTeamBuilding, Payload: map[string]interface{}{
				"quest": 4, "leader": "alice", "team_size": 4,
				"fails_required": 2, "reject_count": 4,
			}},
			"two fail cards",
		},
		{
			"vote results sorted",
			engine.Event{Type: engine.EventVoteResults, Payload: map[string]interface{}{
				"votes": map[string]bool{"bob": false, "alice": true},
			}},
			"alice: approve, bob: reject",
		},
		{
			"quest failure",
			engine.Event{Type: engine.EventQuestResolved, Payload: map[string]interface{}{
				"quest": 2, "fails": 1, "success": false,
			}},
			"Quest 2 failed! (1 fail card)",
		},
		{
			"game over with reveals",
			engine.Event{Type: engine.EventGameOver, Payload: map[string]interface{}{
				"winner": roles.Evil.String(), "reason": "merlin_identified",
				"reveals": []map[string]interface{}{{"name": "alice", "roles": "Merlin"}},
			}},
			"Merlin has been slain",
		},
		{
			"votekick cancel",
			engine.Event{Type: engine.EventCanceled, Payload: map[string]interface{}{
				"reason": "votekick",
			}},
			"The people have spoken",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderEvent(tt.event)
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderEvent() = %q, want it to contain %q", got, tt.want)
			}
		})
	}

	if got := RenderEvent(engine.Event{Type: engine.EventTeamBuilding, Payload: map[string]interface{}{
		"quest": 1, "leader": "alice", "team_size": 2, "fails_required": 1, "reject_count": 1,
	}}); strings.Contains(got, "Careful") || strings.Contains(got, "two fail") {
		t.Errorf("warnings rendered without cause: %q", got)
	}
}

// TestRenderLiveMatchEvents renders events the engine actually emits
// instead of fixtures, so the wording stays keyed to real payloads
// (alignments and winners are capitalized Alignment strings).
func TestRenderLiveMatchEvents(t *testing.T) {
	room, players := testRoom(t, "alice", "bob", "carol", "dave", "erin")
	d := &Dispatcher{Room: room, Rand: rand.New(rand.NewSource(1))}
	ctx := context.Background()

	idOf := func(name string) engine.PlayerID {
		for _, p := range players {
			if p.Name == name {
				return p.ID
			}
		}
		t.Fatalf("no player named %s", name)
		return ""
	}

	for _, p := range players[1:] {
		if res := d.Execute(ctx, Request{Player: p.ID, Name: p.Name, Line: "join"}); res.Reply != "" {
			t.Fatalf("join by %s replied %q", p.Name, res.Reply)
		}
	}
	res := d.Execute(ctx, Request{Player: players[0].ID, Name: "alice", Line: "start"})
	if res.Reply != "" {
		t.Fatalf("start replied %q", res.Reply)
	}

	var leader string
	var evilReveal, goodReveal *engine.Event
	for i := range res.Events {
		e := &res.Events[i]
		switch e.Type {
		case engine.EventRoleReveal:
			if e.Payload["alignment"] == roles.Evil.String() {
				evilReveal = e
			} else {
				goodReveal = e
			}
		case engine.EventTeamBuilding:
			leader, _ = e.Payload["leader"].(string)
		}
	}
	if evilReveal == nil || goodReveal == nil || leader == "" {
		t.Fatalf("start events missing reveals or a leader: %+v", res.Events)
	}
	if got := RenderEvent(*evilReveal); !strings.Contains(got, "forces of evil") {
		t.Errorf("evil reveal rendered as %q", got)
	}
	if got := RenderEvent(*goodReveal); !strings.Contains(got, "forces of good") {
		t.Errorf("good reveal rendered as %q", got)
	}

	// Reject teams until the reject counter hands evil the win.
	var gameOver *engine.Event
	for round := 0; round < 5 && gameOver == nil; round++ {
		res = d.Execute(ctx, Request{Player: idOf(leader), Name: leader, Line: "pick alice bob"})
		if res.Reply != "" {
			t.Fatalf("round %d pick replied %q", round+1, res.Reply)
		}
		for _, p := range players {
			res = d.Execute(ctx, Request{Player: p.ID, Name: p.Name, Line: "reject"})
			if res.Reply != "" {
				t.Fatalf("reject by %s replied %q", p.Name, res.Reply)
			}
			for i := range res.Events {
				e := &res.Events[i]
				switch e.Type {
				case engine.EventTeamBuilding:
					leader, _ = e.Payload["leader"].(string)
				case engine.EventGameOver:
					gameOver = e
				}
			}
		}
	}
	if gameOver == nil {
		t.Fatal("five straight rejections did not end the game")
	}
	got := RenderEvent(*gameOver)
	if !strings.Contains(got, "The forces of evil are victorious!") {
		t.Errorf("evil win rendered as %q", got)
	}
	if !strings.Contains(got, "Five teams were rejected") {
		t.Errorf("rejection reason missing from %q", got)
	}
}

func TestRenderWaiting(t *testing.T) {
	if got := RenderWaiting(nil); !strings.Contains(got, "Not waiting") {
		t.Errorf("nil waiting = %q", got)
	}
	got := RenderWaiting(&engine.Waiting{Kind: engine.WaitingVotes, Players: []string{"alice", "bob"}})
	if !strings.Contains(got, "alice, bob") {
		t.Errorf("votes waiting = %q", got)
	}
}

func TestRenderStats(t *testing.T) {
	if got := RenderStats(nil); !strings.Contains(got, "No games") {
		t.Errorf("empty stats = %q", got)
	}
	rows := []store.StatsRow{
		{PlayerName: "alice", Games: 10, Wins: 7, Ratio: 0.7},
		{PlayerName: "bartholomew", Games: 2.5, Wins: 0.5, Ratio: 0.2},
	}
	got := RenderStats(rows)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("%d lines, want header plus two rows:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], "70.0%") || !strings.Contains(lines[2], "20.0%") {
		t.Errorf("ratios missing:\n%s", got)
	}
	if len(lines[1]) != len(lines[2]) {
		t.Errorf("columns not aligned:\n%s", got)
	}
}
