// Package roles holds the static game data: role identities, alignments,
// evil quotas, and the quest schedule per player count.
package roles

import "fmt"

// Alignment is a player's hidden team.
type Alignment bool

const (
	Good Alignment = true
	Evil Alignment = false
)

func (a Alignment) String() string {
	if a == Good {
		return "Good"
	}
	return "Evil"
}

// Role identifies a character. The numeric values are persisted in match
// records, so they must not be reordered.
type Role int

const (
	None     Role = 0
	Servant  Role = 1
	Minion   Role = 2
	Merlin   Role = 3
	Assassin Role = 4
	Morgana  Role = 5
	Percival Role = 6
	Mordred  Role = 7
	Oberon   Role = 8
	Norebo   Role = 9
	Palm     Role = 10
)

var names = [...]string{
	"None",
	"Loyal Servant of Arthur",
	"Minion of Mordred",
	"Merlin",
	"Assassin",
	"Morgana",
	"Percival",
	"Mordred",
	"Oberon",
	"Norebo",
	"Palm",
}

var commands = [...]string{
	"none",
	"servant",
	"minion",
	"merlin",
	"assassin",
	"morgana",
	"percival",
	"mordred",
	"oberon",
	"norebo",
	"palm",
}

var alignments = map[Role]Alignment{
	Servant:  Good,
	Merlin:   Good,
	Percival: Good,
	Norebo:   Good,
	Palm:     Good,
	Minion:   Evil,
	Assassin: Evil,
	Morgana:  Evil,
	Mordred:  Evil,
	Oberon:   Evil,
}

// Name returns the descriptive name of the role (e.g. "Loyal Servant of Arthur").
func (r Role) Name() string {
	if r < None || int(r) >= len(names) {
		return names[None]
	}
	return names[r]
}

// Command returns the short lowercase name used in commands and stats queries.
func (r Role) Command() string {
	if r < None || int(r) >= len(commands) {
		return commands[None]
	}
	return commands[r]
}

// Alignment returns the fixed team of the role.
func (r Role) Alignment() Alignment {
	return alignments[r]
}

// Valid reports whether r is a playable role.
func (r Role) Valid() bool {
	_, ok := alignments[r]
	return ok
}

// Special reports whether r is one of the mergeable special roles
// (everything except the Servant/Minion fillers).
func (r Role) Special() bool {
	return r.Valid() && r != Servant && r != Minion
}

// Parse resolves a role from its short command name or descriptive name.
// A few aliases are accepted ("perc" for Percival, "loyal" for Servant).
func Parse(s string) (Role, error) {
	switch s {
	case "perc":
		return Percival, nil
	case "loyal":
		return Servant, nil
	}
	for i := int(Servant); i < len(commands); i++ {
		if commands[i] == s {
			return Role(i), nil
		}
	}
	return None, fmt.Errorf("unrecognized role %q", s)
}

// SpecialNames returns the descriptive names of the mergeable roles, used
// for usage messages.
func SpecialNames() []string {
	out := make([]string, 0, 8)
	for r := Merlin; r <= Palm; r++ {
		out = append(out, r.Name())
	}
	return out
}

// Feature names, as accepted by enable/disable and stored on the match.
const (
	FeatureMerlin  = "merlin"
	FeatureMorgana = "morgana" // enables the Morgana/Percival pair
	FeatureMordred = "mordred"
	FeatureOberon  = "oberon"
	FeatureNorebo  = "norebo"
	FeaturePalm    = "palm"
	FeatureLady    = "lady"
)

// FeatureNames maps feature keys to display names.
var FeatureNames = map[string]string{
	FeatureMerlin:  "Merlin",
	FeatureMorgana: "Morgana/Percival",
	FeatureMordred: "Mordred",
	FeatureOberon:  "Oberon",
	FeatureNorebo:  "Norebo",
	FeaturePalm:    "Palm",
	FeatureLady:    "Lady of the Lake",
}

// DefaultFeatures returns the feature set of a freshly created match:
// Merlin on, everything else off.
func DefaultFeatures() map[string]bool {
	return map[string]bool{
		FeatureMerlin:  true,
		FeatureMorgana: false,
		FeatureMordred: false,
		FeatureOberon:  false,
		FeatureNorebo:  false,
		FeaturePalm:    false,
		FeatureLady:    false,
	}
}

// FeatureFor returns the feature key that puts the given special role in
// play. The Assassin rides on the merlin feature and Percival on morgana.
func FeatureFor(r Role) (string, bool) {
	switch r {
	case Merlin, Assassin:
		return FeatureMerlin, true
	case Percival, Morgana:
		return FeatureMorgana, true
	case Mordred:
		return FeatureMordred, true
	case Oberon:
		return FeatureOberon, true
	case Norebo:
		return FeatureNorebo, true
	case Palm:
		return FeaturePalm, true
	}
	return "", false
}

// Quest is one row of the quest schedule.
type Quest struct {
	TeamSize      int
	FailsRequired int
}

const (
	MinPlayers = 5
	MaxPlayers = 10

	// QuestCount is the number of quests in a match.
	QuestCount = 5
)

var evilQuota = map[int]int{
	5:  2,
	6:  2,
	7:  3,
	8:  3,
	9:  3,
	10: 4,
}

var questSchedules = map[int][QuestCount]Quest{
	5:  {{2, 1}, {3, 1}, {2, 1}, {3, 1}, {3, 1}},
	6:  {{2, 1}, {3, 1}, {4, 1}, {3, 1}, {4, 1}},
	7:  {{2, 1}, {3, 1}, {3, 1}, {4, 2}, {4, 1}},
	8:  {{3, 1}, {4, 1}, {4, 1}, {5, 2}, {5, 1}},
	9:  {{3, 1}, {4, 1}, {4, 1}, {5, 2}, {5, 1}},
	10: {{3, 1}, {4, 1}, {4, 1}, {5, 2}, {5, 1}},
}

// EvilCount returns the number of evil players for the given player count.
func EvilCount(playerCount int) (int, error) {
	n, ok := evilQuota[playerCount]
	if !ok {
		return 0, fmt.Errorf("unsupported player count %d: must be %d-%d", playerCount, MinPlayers, MaxPlayers)
	}
	return n, nil
}

// Schedule returns the five-quest schedule for the given player count.
func Schedule(playerCount int) ([QuestCount]Quest, error) {
	q, ok := questSchedules[playerCount]
	if !ok {
		return [QuestCount]Quest{}, fmt.Errorf("unsupported player count %d: must be %d-%d", playerCount, MinPlayers, MaxPlayers)
	}
	return q, nil
}
