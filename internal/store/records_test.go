package store

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/roles"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	pool := SetupTestDB(t)
	s := NewRecordStore(pool)
	ctx := context.Background()

	alice := engine.PlayerID(uuid.NewString())
	bob := engine.PlayerID(uuid.NewString())

	// One match: alice wins as Merlin, bob loses holding a two-role
	// composite.
	results := []engine.PlayerResult{
		{PlayerID: alice, Name: "alice", Role: roles.Merlin, Won: true, CompositeCount: 1},
		{PlayerID: bob, Name: "bob", Role: roles.Morgana, Won: false, CompositeCount: 2},
		{PlayerID: bob, Name: "bob", Role: roles.Mordred, Won: false, CompositeCount: 2},
	}
	if err := s.AppendResults(ctx, results); err != nil {
		t.Fatalf("append results: %v", err)
	}

	recent, err := s.RecentRecords(ctx, 10)
	if err != nil {
		t.Fatalf("recent records: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("%d recent records, want 3", len(recent))
	}
	seenMerlin := false
	for _, r := range recent {
		if r.PlayerID == alice && r.Role == roles.Merlin {
			seenMerlin = true
		}
	}
	if !seenMerlin {
		t.Error("alice's Merlin record not returned")
	}

	stats, err := s.Stats(ctx, StatsFilter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("%d stats rows, want 2", len(stats))
	}
	// alice's full win sorts above bob's fractional losses.
	if stats[0].PlayerName != "alice" || stats[0].Games != 1 || stats[0].Wins != 1 {
		t.Errorf("alice row = %+v, want 1 game 1 win", stats[0])
	}
	if stats[1].PlayerName != "bob" || math.Abs(stats[1].Games-1) > 1e-9 || stats[1].Wins != 0 {
		t.Errorf("bob row = %+v, want composite credit summing to 1 game", stats[1])
	}

	evil := roles.Evil
	evilStats, err := s.Stats(ctx, StatsFilter{Alignment: &evil})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(evilStats) != 1 || evilStats[0].PlayerName != "bob" {
		t.Errorf("evil stats = %v, want only bob", evilStats)
	}

	merlin := roles.Merlin
	roleStats, err := s.Stats(ctx, StatsFilter{Role: &merlin})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(roleStats) != 1 || roleStats[0].PlayerName != "alice" {
		t.Errorf("merlin stats = %v, want only alice", roleStats)
	}

	records, err := s.Records(ctx, 2)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("%d raw records, want the limit of 2", len(records))
	}
}
