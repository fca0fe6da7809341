// Package engine implements the Avalon match engine: role assignment,
// the match state machine, and win evaluation. It has no transport
// knowledge; verbs return events that transports render and deliver.
package engine

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/roundtable-games/avalon/internal/roles"
)

// PlayerID is an opaque external participant reference. The engine only
// compares it for equality.
type PlayerID string

// Player is one match participant.
type Player struct {
	ID        PlayerID
	Name      string
	Roles     []roles.Role
	Alignment roles.Alignment

	vote    *bool // approve/reject, set only during the voting phase
	outcome *bool // success/fail, set only during the outcome phase
}

func (p *Player) holds(r roles.Role) bool {
	for _, x := range p.Roles {
		if x == r {
			return true
		}
	}
	return false
}

// revealName is the role name shown to the player privately. Palm and
// Norebo never learn their own true identity.
func (p *Player) revealName() string {
	var names []string
	for _, r := range p.Roles {
		if r == roles.Palm || r == roles.Norebo {
			continue
		}
		names = append(names, r.Name())
	}
	if len(names) == 0 {
		return roles.Servant.Name()
	}
	return joinRoles(names)
}

func (p *Player) roleNames() string {
	names := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		names[i] = r.Name()
	}
	return joinRoles(names)
}

func joinRoles(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += "/" + n
	}
	return out
}

// Phase is the match state machine state.
type Phase int

const (
	PhaseCreated Phase = iota // zero value; no match set up yet
	PhaseLobby
	PhaseTeamBuilding
	PhaseVoting
	PhaseOutcome
	PhaseLadyInvestigation
	PhaseAssassination
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseLobby:
		return "lobby"
	case PhaseTeamBuilding:
		return "team_building"
	case PhaseVoting:
		return "voting"
	case PhaseOutcome:
		return "outcome"
	case PhaseLadyInvestigation:
		return "lady_investigation"
	case PhaseAssassination:
		return "assassination"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// DefaultVotekickThreshold is the number of distinct requesters needed to
// cancel a match by popular vote.
const DefaultVotekickThreshold = 4

// Options configures a match.
type Options struct {
	// VotekickThreshold overrides DefaultVotekickThreshold when positive.
	VotekickThreshold int
	// Shuffler performs the role-to-player permutation at start. Defaults
	// to a uniform shuffle.
	Shuffler Shuffler
	// Rand is the randomness source for play order, pick-random, and the
	// Percival reveal. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Match is the aggregate root for one game. All verbs are safe for
// concurrent use; the transport may deliver truly concurrent inputs.
type Match struct {
	mu   sync.Mutex
	opts Options
	rng  *rand.Rand

	phase    Phase
	owner    PlayerID
	players  []*Player
	features map[string]bool
	merged   [][]roles.Role
	muted    bool

	schedule     [roles.QuestCount]roles.Quest
	questIndex   int
	questResults []bool
	rejectCount  int
	leaderIndex  int
	team         []*Player

	lady         *Player
	investigated map[PlayerID]bool
	assassin     *Player

	// Single-flight latches: exactly one tabulation may run even when
	// several racers each observe "all inputs present".
	tabulatingVotes    bool
	tabulatingOutcomes bool

	votekicks map[PlayerID]bool

	winner  *roles.Alignment
	results []PlayerResult
}

// PlayerResult is one per-role stats record produced when a match finishes.
type PlayerResult struct {
	PlayerID       PlayerID
	Name           string
	Role           roles.Role
	Won            bool
	CompositeCount int
}

// NewMatch creates a match in the lobby phase with the owner as its first
// participant.
func NewMatch(ownerID PlayerID, ownerName string, opts Options) *Match {
	if opts.VotekickThreshold <= 0 {
		opts.VotekickThreshold = DefaultVotekickThreshold
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Match{
		opts:         opts,
		rng:          rng,
		phase:        PhaseLobby,
		owner:        ownerID,
		features:     roles.DefaultFeatures(),
		rejectCount:  1,
		leaderIndex:  -1,
		investigated: make(map[PlayerID]bool),
		votekicks:    make(map[PlayerID]bool),
	}
	m.players = append(m.players, &Player{ID: ownerID, Name: ownerName})
	return m
}

// --- guards ---

func (m *Match) findPlayer(id PlayerID) *Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Match) requireOwner(id PlayerID) error {
	if m.owner != id {
		return authErrf("only the game owner may do this")
	}
	return nil
}

func (m *Match) requireLobby() error {
	if m.phase != PhaseLobby {
		return phaseErrf("cannot modify this game, it has already started")
	}
	return nil
}

// --- lobby verbs ---

// Join adds a participant before the match starts.
func (m *Match) Join(id PlayerID, name string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if m.findPlayer(id) != nil {
		return nil, validationErrf("you are already part of this game")
	}
	m.players = append(m.players, &Player{ID: id, Name: name})
	return []Event{broadcast(EventPlayerJoined, map[string]interface{}{
		"player_id": string(id), "name": name,
	})}, nil
}

// Leave removes a participant before the match starts. The owner cannot
// leave; cancel is the owner's exit.
func (m *Match) Leave(id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if id == m.owner {
		return nil, validationErrf("the game owner must cancel the game instead of leaving it")
	}
	p := m.findPlayer(id)
	if p == nil {
		return nil, validationErrf("you are not part of this game")
	}
	out := m.players[:0]
	for _, x := range m.players {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.players = out
	return []Event{broadcast(EventPlayerLeft, map[string]interface{}{
		"player_id": string(id), "name": p.Name,
	})}, nil
}

// Cancel tears the match down. Owner only; allowed at any point before the
// match finishes. Confirmation is the transport's business.
func (m *Match) Cancel(id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseFinished {
		return nil, phaseErrf("the game is already over")
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	return m.cancelLocked("owner"), nil
}

func (m *Match) cancelLocked(reason string) []Event {
	ownerName := ""
	if p := m.findPlayer(m.owner); p != nil {
		ownerName = p.Name
	}
	m.phase = PhaseFinished
	m.owner = ""
	return []Event{broadcast(EventCanceled, map[string]interface{}{
		"reason": reason, "owner": ownerName,
	})}
}

// Votekick registers a vote to cancel an abandoned match. Reaching the
// threshold cancels it regardless of owner.
func (m *Match) Votekick(id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseFinished {
		return nil, phaseErrf("the game is already over")
	}
	m.votekicks[id] = true
	events := []Event{broadcast(EventVotekick, map[string]interface{}{
		"count": len(m.votekicks), "threshold": m.opts.VotekickThreshold,
	})}
	if len(m.votekicks) >= m.opts.VotekickThreshold {
		events = append(events, m.cancelLocked("votekick")...)
	}
	return events, nil
}

// SetFeature enables or disables one feature. Owner only, lobby only.
func (m *Match) SetFeature(id PlayerID, feature string, enabled bool) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	if _, ok := m.features[feature]; !ok {
		return nil, configErrf("unrecognized feature %q: should be one of %s, all", feature, featureList())
	}
	m.features[feature] = enabled
	return []Event{featureEvent(feature, enabled)}, nil
}

// SetAllFeatures enables or disables every feature at once.
func (m *Match) SetAllFeatures(id PlayerID, enabled bool) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	for k := range m.features {
		m.features[k] = enabled
	}
	return []Event{broadcast(EventFeatureSet, map[string]interface{}{
		"feature": "all", "name": "all", "enabled": enabled,
	})}, nil
}

func featureEvent(feature string, enabled bool) Event {
	return broadcast(EventFeatureSet, map[string]interface{}{
		"feature": feature, "name": roles.FeatureNames[feature], "enabled": enabled,
	})
}

func featureList() string {
	keys := make([]string, 0, len(roles.FeatureNames))
	for k := range roles.FeatureNames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := keys[0]
	for _, k := range keys[1:] {
		out += ", " + k
	}
	return out
}

// Merge declares that the given special roles must co-occur on one player.
// A new group absorbs any existing group it overlaps with. Groups must be
// alignment-pure and must not pair Merlin with Percival. Merging a role
// implicitly enables the feature that provides it.
func (m *Match) Merge(id PlayerID, rs []roles.Role) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	if len(rs) < 2 {
		return nil, configErrf("a merge needs at least two roles")
	}
	group := make([]roles.Role, 0, len(rs))
	for _, r := range rs {
		if !r.Special() {
			return nil, configErrf("role %q cannot be merged", r.Name())
		}
		if containsRole(group, r) {
			return nil, configErrf("duplicate role %q", r.Name())
		}
		group = append(group, r)
	}

	// Coalesce with existing groups that overlap, without mutating the
	// match until the combined group validates.
	var keep [][]roles.Role
	for _, existing := range m.merged {
		overlaps := false
		for _, r := range existing {
			if containsRole(group, r) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			keep = append(keep, existing)
			continue
		}
		for _, r := range existing {
			if !containsRole(group, r) {
				group = append(group, r)
			}
		}
	}
	sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })

	goodCount := 0
	for _, r := range group {
		if r.Alignment() == roles.Good {
			goodCount++
		}
	}
	if goodCount != 0 && goodCount != len(group) {
		return nil, configErrf("cannot merge good roles with evil roles")
	}
	if containsRole(group, roles.Merlin) && containsRole(group, roles.Percival) {
		return nil, configErrf("cannot merge Merlin with Percival")
	}

	m.merged = append(keep, group)

	var events []Event
	names := make([]string, len(group))
	for i, r := range group {
		names[i] = r.Name()
		if feat, ok := roles.FeatureFor(r); ok && !m.features[feat] {
			m.features[feat] = true
			events = append(events, featureEvent(feat, true))
		}
	}
	events = append(events, broadcast(EventRolesMerged, map[string]interface{}{
		"roles": names,
	}))
	return events, nil
}

// Unmerge clears every merge group.
func (m *Match) Unmerge(id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	m.merged = nil
	return []Event{broadcast(EventRolesUnmerged, nil)}, nil
}

// Mute turns on silent mode: the transport suppresses table talk while the
// match runs.
func (m *Match) Mute(id PlayerID) ([]Event, error) {
	return m.setMuted(id, true)
}

// Unmute turns silent mode off.
func (m *Match) Unmute(id PlayerID) ([]Event, error) {
	return m.setMuted(id, false)
}

func (m *Match) setMuted(id PlayerID, muted bool) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLobby(); err != nil {
		return nil, err
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	m.muted = muted
	t := EventMuted
	if !muted {
		t = EventUnmuted
	}
	return []Event{broadcast(t, nil)}, nil
}

// --- start ---

// Start fixes the roster, assigns roles, and opens the first team-building
// round. ctx feeds the shuffler, which may consult persisted history.
func (m *Match) Start(ctx context.Context, id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseLobby {
		if m.phase == PhaseFinished {
			return nil, phaseErrf("the game is already over")
		}
		return nil, phaseErrf("the game has already started")
	}
	if err := m.requireOwner(id); err != nil {
		return nil, err
	}
	schedule, err := roles.Schedule(len(m.players))
	if err != nil {
		return nil, configErrf("cannot start: %v", err)
	}

	sh := m.opts.Shuffler
	if sh == nil {
		sh = &UniformShuffler{Rand: m.rng}
	}
	ids := make([]PlayerID, len(m.players))
	// Randomize the play order first; it defines leader rotation.
	m.rng.Shuffle(len(m.players), func(i, j int) {
		m.players[i], m.players[j] = m.players[j], m.players[i]
	})
	for i, p := range m.players {
		ids[i] = p.ID
	}

	assignment, err := AssignRoles(ctx, ids, m.features, m.merged, sh)
	if err != nil {
		return nil, err
	}
	for i, p := range m.players {
		p.Roles = assignment.RoleSets[i]
		p.Alignment = p.Roles[0].Alignment()
		p.vote = nil
		p.outcome = nil
	}
	for _, d := range assignment.Dropped {
		m.features[d.Feature] = false
	}

	m.schedule = schedule
	m.questIndex = 0
	m.questResults = nil
	m.rejectCount = 1
	m.leaderIndex = -1
	m.team = nil
	m.investigated = make(map[PlayerID]bool)
	if m.features[roles.FeatureLady] {
		// The last player in rotation order leads last; they hold the Lady
		// first and count as already investigated.
		m.lady = m.players[len(m.players)-1]
		m.investigated[m.lady.ID] = true
	}

	events := []Event{broadcast(EventStarted, map[string]interface{}{
		"players": playerNames(m.players),
	})}
	for _, d := range assignment.Dropped {
		names := make([]string, len(d.Roles))
		for i, r := range d.Roles {
			names[i] = r.Name()
		}
		events = append(events, broadcast(EventFeatureDropped, map[string]interface{}{
			"feature": d.Feature, "roles": names, "reason": string(d.Reason),
		}))
	}
	events = append(events, m.disclosures()...)
	events = append(events, m.openTeamBuilding()...)
	return events, nil
}

// disclosures computes every player's private knowledge from the static
// visibility relation.
func (m *Match) disclosures() []Event {
	var events []Event
	for _, p := range m.players {
		events = append(events, private(p.ID, EventRoleReveal, map[string]interface{}{
			"role":      p.revealName(),
			"alignment": p.Alignment.String(),
		}))
	}
	for _, p := range m.players {
		switch {
		case p.Alignment == roles.Evil && !p.holds(roles.Oberon):
			// Evil players learn each other, except Oberon. Norebo and Palm
			// show up here as false positives despite being good.
			var names []string
			for _, other := range m.players {
				if other == p {
					continue
				}
				if (other.Alignment == roles.Evil && !other.holds(roles.Oberon)) ||
					other.holds(roles.Norebo) || other.holds(roles.Palm) {
					names = append(names, other.Name)
				}
			}
			events = append(events, private(p.ID, EventEvilKnowledge, map[string]interface{}{
				"names": names,
			}))
		case p.holds(roles.Merlin):
			// Merlin sees evil except Mordred, plus Palm as a false positive.
			var names []string
			for _, other := range m.players {
				if (other.Alignment == roles.Evil && !other.holds(roles.Mordred)) ||
					other.holds(roles.Palm) {
					names = append(names, other.Name)
				}
			}
			events = append(events, private(p.ID, EventMerlinKnowledge, map[string]interface{}{
				"names": names,
			}))
		case p.holds(roles.Percival):
			// Percival sees Merlin and Morgana in random order, so the pair
			// cannot be told apart.
			var names []string
			for _, other := range m.players {
				if other.holds(roles.Merlin) || other.holds(roles.Morgana) {
					names = append(names, other.Name)
				}
			}
			m.rng.Shuffle(len(names), func(i, j int) {
				names[i], names[j] = names[j], names[i]
			})
			events = append(events, private(p.ID, EventPercivalReveal, map[string]interface{}{
				"names": names,
			}))
		}
	}
	return events
}

func playerNames(ps []*Player) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
