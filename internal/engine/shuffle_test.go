package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/roundtable-games/avalon/internal/roles"
)

type fakeHistory struct {
	records []HistoryRecord
	err     error
}

func (f *fakeHistory) RecentRecords(_ context.Context, _ int) ([]HistoryRecord, error) {
	return f.records, f.err
}

func singles(rs ...roles.Role) [][]roles.Role {
	out := make([][]roles.Role, len(rs))
	for i, r := range rs {
		out[i] = []roles.Role{r}
	}
	return out
}

func assertPermutationOf(t *testing.T, got, want [][]roles.Role) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d role sets, want %d", len(got), len(want))
	}
	used := make([]bool, len(want))
outer:
	for _, set := range got {
		for i, w := range want {
			if used[i] || len(set) != len(w) {
				continue
			}
			same := true
			for j := range set {
				if set[j] != w[j] {
					same = false
					break
				}
			}
			if same {
				used[i] = true
				continue outer
			}
		}
		t.Fatalf("role set %v is not a leftover from the input", set)
	}
}

func TestUniformShufflerIsPermutation(t *testing.T) {
	sets := singles(roles.Merlin, roles.Servant, roles.Servant, roles.Assassin, roles.Minion)
	s := &UniformShuffler{Rand: rand.New(rand.NewSource(3))}
	got, err := s.Shuffle(context.Background(), sets, nil)
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	assertPermutationOf(t, got, sets)
}

func TestAntiRepeatAvoidsRecentRole(t *testing.T) {
	players := []PlayerID{"p1", "p2", "p3"}
	sets := singles(roles.Merlin, roles.Servant, roles.Assassin)
	history := &fakeHistory{records: []HistoryRecord{
		{PlayerID: "p1", Role: roles.Merlin},
		{PlayerID: "p2", Role: roles.Assassin},
	}}

	for seed := int64(0); seed < 25; seed++ {
		s := &AntiRepeatShuffler{History: history, Rand: rand.New(rand.NewSource(seed))}
		got, err := s.Shuffle(context.Background(), sets, players)
		if err != nil {
			t.Fatalf("seed %d: Shuffle: %v", seed, err)
		}
		assertPermutationOf(t, got, sets)
		if containsRole(got[0], roles.Merlin) {
			t.Fatalf("seed %d: p1 was dealt Merlin again", seed)
		}
		if containsRole(got[1], roles.Assassin) {
			t.Fatalf("seed %d: p2 was dealt Assassin again", seed)
		}
	}
}

func TestAntiRepeatFallsBackWhenHistoryEliminatesEverything(t *testing.T) {
	players := []PlayerID{"p1", "p2", "p3"}
	sets := singles(roles.Merlin, roles.Servant, roles.Assassin)
	// p1 has held every role on offer; once Assassin is the only remaining
	// option for p1, the next elimination would empty the pool and must be
	// skipped.
	history := &fakeHistory{records: []HistoryRecord{
		{PlayerID: "p1", Role: roles.Merlin},
		{PlayerID: "p1", Role: roles.Servant},
		{PlayerID: "p1", Role: roles.Assassin},
	}}

	s := &AntiRepeatShuffler{History: history, Rand: rand.New(rand.NewSource(11))}
	got, err := s.Shuffle(context.Background(), sets, players)
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	assertPermutationOf(t, got, sets)
	if !containsRole(got[0], roles.Assassin) {
		t.Errorf("p1 got %v, want the only surviving option Assassin", got[0])
	}
}

func TestAntiRepeatIgnoresUnknownPlayers(t *testing.T) {
	players := []PlayerID{"p1", "p2"}
	sets := singles(roles.Merlin, roles.Assassin)
	history := &fakeHistory{records: []HistoryRecord{
		{PlayerID: "stranger", Role: roles.Merlin},
		{PlayerID: "p2", Role: roles.Merlin},
	}}

	s := &AntiRepeatShuffler{History: history, Rand: rand.New(rand.NewSource(1))}
	got, err := s.Shuffle(context.Background(), sets, players)
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	if !containsRole(got[0], roles.Merlin) {
		t.Errorf("p1 got %v, want Merlin forced by p2's history", got[0])
	}
}

func TestCandidatePermsEnumeratesSmallCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := len(candidatePerms(4, rng)); got != 24 {
		t.Errorf("candidatePerms(4) returned %d perms, want 24", got)
	}
	if got := len(candidatePerms(5, rng)); got != 120 {
		t.Errorf("candidatePerms(5) returned %d perms, want 120", got)
	}
}

func TestCandidatePermsSamplesLargeCounts(t *testing.T) {
	// 7! = 5040 exceeds the pool bound, so the shuffler samples instead.
	perms := candidatePerms(7, rand.New(rand.NewSource(1)))
	if len(perms) != maxCandidates {
		t.Fatalf("candidatePerms(7) returned %d perms, want %d", len(perms), maxCandidates)
	}
	for _, perm := range perms {
		seen := make([]bool, 7)
		for _, v := range perm {
			seen[v] = true
		}
		for i, ok := range seen {
			if !ok {
				t.Fatalf("perm %v does not cover slot %d", perm, i)
			}
		}
	}
}

func TestShufflersWorkWithoutInjectedRand(t *testing.T) {
	players := []PlayerID{"p1", "p2", "p3"}
	sets := singles(roles.Merlin, roles.Servant, roles.Assassin)

	uniform := &UniformShuffler{}
	got, err := uniform.Shuffle(context.Background(), sets, players)
	if err != nil {
		t.Fatalf("UniformShuffler.Shuffle: %v", err)
	}
	assertPermutationOf(t, got, sets)

	anti := &AntiRepeatShuffler{History: &fakeHistory{}}
	got, err = anti.Shuffle(context.Background(), sets, players)
	if err != nil {
		t.Fatalf("AntiRepeatShuffler.Shuffle: %v", err)
	}
	assertPermutationOf(t, got, sets)
}
