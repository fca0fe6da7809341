package engine

import (
	"context"
	"fmt"

	"github.com/roundtable-games/avalon/internal/roles"
)

// DroppedFeature records a feature that was force-disabled during role
// assignment, either because its prerequisite is off or because the role
// list did not fit the player count.
type DroppedFeature struct {
	Feature string
	Roles   []roles.Role
	Reason  DropReason
}

type DropReason string

const (
	// DropMerlinOff: the Morgana/Percival pair requires Merlin.
	DropMerlinOff DropReason = "merlin_off"
	// DropNoRoom: the special role list exceeded the good/evil slot count.
	DropNoRoom DropReason = "not_enough_players"
)

// Assignment is the result of role assignment for one match.
type Assignment struct {
	// RoleSets is aligned with the player order passed to AssignRoles.
	RoleSets [][]roles.Role
	// Dropped lists features force-disabled during assignment. The caller
	// must apply these to its feature map and warn the group.
	Dropped []DroppedFeature
}

// AssignRoles computes the concrete role multiset for the given players
// under the enabled features and merge groups, then delegates to the
// shuffler for the role-to-player permutation.
//
// features is not mutated; the caller applies Dropped itself. merged groups
// must already be validated (alignment-pure, no Merlin+Percival).
func AssignRoles(ctx context.Context, players []PlayerID, features map[string]bool, merged [][]roles.Role, sh Shuffler) (*Assignment, error) {
	evilCount, err := roles.EvilCount(len(players))
	if err != nil {
		return nil, configErrf("%v", err)
	}
	goodCount := len(players) - evilCount

	var dropped []DroppedFeature
	var specialGood, specialEvil [][]roles.Role

	if features[roles.FeatureMerlin] {
		specialGood = append(specialGood, []roles.Role{roles.Merlin})
		specialEvil = append(specialEvil, []roles.Role{roles.Assassin})
		if features[roles.FeatureMorgana] {
			specialGood = append(specialGood, []roles.Role{roles.Percival})
			specialEvil = append(specialEvil, []roles.Role{roles.Morgana})
		}
	} else if features[roles.FeatureMorgana] {
		dropped = append(dropped, DroppedFeature{
			Feature: roles.FeatureMorgana,
			Roles:   []roles.Role{roles.Percival, roles.Morgana},
			Reason:  DropMerlinOff,
		})
	}
	if features[roles.FeatureMordred] {
		specialEvil = append(specialEvil, []roles.Role{roles.Mordred})
	}
	if features[roles.FeatureOberon] {
		specialEvil = append(specialEvil, []roles.Role{roles.Oberon})
	}
	if features[roles.FeatureNorebo] {
		specialGood = append(specialGood, []roles.Role{roles.Norebo})
	}
	if features[roles.FeaturePalm] {
		specialGood = append(specialGood, []roles.Role{roles.Palm})
	}

	specialGood = applyMerges(specialGood, merged)
	specialEvil = applyMerges(specialEvil, merged)

	goodSets, droppedGood := fill(specialGood, roles.Servant, goodCount)
	evilSets, droppedEvil := fill(specialEvil, roles.Minion, evilCount)

	for _, set := range append(droppedGood, droppedEvil...) {
		for _, feat := range featuresOf(set) {
			dropped = append(dropped, DroppedFeature{Feature: feat, Roles: set, Reason: DropNoRoom})
		}
	}

	roleSets := make([][]roles.Role, 0, len(players))
	roleSets = append(roleSets, goodSets...)
	roleSets = append(roleSets, evilSets...)

	assigned, err := sh.Shuffle(ctx, roleSets, players)
	if err != nil {
		return nil, fmt.Errorf("shuffle roles: %w", err)
	}
	if len(assigned) != len(players) {
		return nil, fmt.Errorf("shuffler returned %d role sets for %d players", len(assigned), len(players))
	}

	return &Assignment{RoleSets: assigned, Dropped: dropped}, nil
}

// applyMerges collapses special roles that share a merge group into one
// composite set occupying a single slot. Only roles actually present in the
// special list participate; a merge needs at least two present roles to
// take effect.
func applyMerges(special [][]roles.Role, merged [][]roles.Role) [][]roles.Role {
	for _, group := range merged {
		var composite []roles.Role
		for _, r := range group {
			for _, set := range special {
				if len(set) == 1 && set[0] == r {
					composite = append(composite, r)
					break
				}
			}
		}
		if len(composite) < 2 {
			continue
		}
		var out [][]roles.Role
		for _, set := range special {
			if len(set) == 1 && containsRole(composite, set[0]) {
				continue
			}
			out = append(out, set)
		}
		special = append(out, composite)
	}
	return special
}

// fill pads the special sets with filler singletons up to count slots and
// returns the sets that did not fit.
func fill(special [][]roles.Role, filler roles.Role, count int) (kept, dropped [][]roles.Role) {
	for i, set := range special {
		if i < count {
			kept = append(kept, set)
		} else {
			dropped = append(dropped, set)
		}
	}
	for len(kept) < count {
		kept = append(kept, []roles.Role{filler})
	}
	return kept, dropped
}

// featuresOf returns the distinct feature keys providing the roles in set.
func featuresOf(set []roles.Role) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range set {
		f, ok := roles.FeatureFor(r)
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
