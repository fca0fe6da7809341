package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/roundtable-games/avalon/internal/roles"
)

// shuffleRand resolves an optional injected source. Zero-valued shufflers
// fall back to a time-seeded one.
func shuffleRand(r *rand.Rand) *rand.Rand {
	if r != nil {
		return r
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Shuffler produces the role-set-to-player permutation at match start.
// roleSets[i] is the role set for slot i; the returned slice has the same
// length, with element i holding the role set assigned to players[i].
type Shuffler interface {
	Shuffle(ctx context.Context, roleSets [][]roles.Role, players []PlayerID) ([][]roles.Role, error)
}

// UniformShuffler assigns roles by a uniform random permutation.
type UniformShuffler struct {
	Rand *rand.Rand
}

func (s *UniformShuffler) Shuffle(_ context.Context, roleSets [][]roles.Role, _ []PlayerID) ([][]roles.Role, error) {
	out := make([][]roles.Role, len(roleSets))
	copy(out, roleSets)
	shuffleRand(s.Rand).Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// HistoryRecord is one line of persisted match history, newest first.
type HistoryRecord struct {
	PlayerID PlayerID
	Role     roles.Role
}

// HistoryProvider supplies recent match records for the anti-repetition
// shuffle. Implemented by the store package; engine tests use fakes.
type HistoryProvider interface {
	RecentRecords(ctx context.Context, limit int) ([]HistoryRecord, error)
}

const (
	// maxCandidates bounds the candidate permutation pool.
	maxCandidates = 500
	// maxHistory bounds how far back the anti-repetition walk looks.
	maxHistory = 100
)

// AntiRepeatShuffler biases assignments away from roles each player held
// recently. It walks match history newest to oldest, eliminating candidate
// permutations that would hand a player a role they already had, and falls
// back to a uniform pick whenever elimination would empty the pool.
type AntiRepeatShuffler struct {
	History HistoryProvider
	Rand    *rand.Rand
}

func (s *AntiRepeatShuffler) Shuffle(ctx context.Context, roleSets [][]roles.Role, players []PlayerID) ([][]roles.Role, error) {
	if len(roleSets) != len(players) {
		return nil, fmt.Errorf("role sets (%d) do not match players (%d)", len(roleSets), len(players))
	}
	rng := shuffleRand(s.Rand)
	candidates := candidatePerms(len(roleSets), rng)

	records, err := s.History.RecentRecords(ctx, maxHistory)
	if err != nil {
		return nil, fmt.Errorf("load match history: %w", err)
	}

	index := make(map[PlayerID]int, len(players))
	for i, p := range players {
		index[p] = i
	}

	for consulted, rec := range records {
		if consulted >= maxHistory {
			break
		}
		slot, ok := index[rec.PlayerID]
		if !ok {
			continue
		}
		var kept [][]int
		for _, perm := range candidates {
			if !containsRole(roleSets[perm[slot]], rec.Role) {
				kept = append(kept, perm)
			}
		}
		if len(kept) == 0 {
			// Eliminating would leave nothing to choose from.
			break
		}
		candidates = kept
	}

	perm := candidates[rng.Intn(len(candidates))]
	out := make([][]roles.Role, len(roleSets))
	for i := range perm {
		out[i] = roleSets[perm[i]]
	}
	return out, nil
}

// candidatePerms returns either every permutation of n slots (when n! fits
// under maxCandidates) or a random sample of maxCandidates permutations.
func candidatePerms(n int, rng *rand.Rand) [][]int {
	total := 1
	for i := 2; i <= n; i++ {
		total *= i
		if total > maxCandidates {
			break
		}
	}
	if total > maxCandidates {
		perms := make([][]int, maxCandidates)
		for i := range perms {
			perms[i] = rng.Perm(n)
		}
		return perms
	}

	var perms [][]int
	cur := make([]int, n)
	for i := range cur {
		cur[i] = i
	}
	var generate func(k int)
	generate = func(k int) {
		if k == n {
			perm := make([]int, n)
			copy(perm, cur)
			perms = append(perms, perm)
			return
		}
		for i := k; i < n; i++ {
			cur[k], cur[i] = cur[i], cur[k]
			generate(k + 1)
			cur[k], cur[i] = cur[i], cur[k]
		}
	}
	generate(0)
	return perms
}

func containsRole(set []roles.Role, r roles.Role) bool {
	for _, x := range set {
		if x == r {
			return true
		}
	}
	return false
}
