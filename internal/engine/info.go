package engine

import (
	"github.com/roundtable-games/avalon/internal/roles"
)

// Info is a public snapshot of the match, safe to show to everyone.
type Info struct {
	Phase        Phase             `json:"phase"`
	Players      []string          `json:"players"`
	Features     map[string]bool   `json:"features"`
	Merged       [][]string        `json:"merged,omitempty"`
	Muted        bool              `json:"muted"`
	Quest        int               `json:"quest,omitempty"`
	QuestResults []bool            `json:"quest_results,omitempty"`
	TeamSize     int               `json:"team_size,omitempty"`
	FailsNeeded  int               `json:"fails_needed,omitempty"`
	RejectCount  int               `json:"reject_count,omitempty"`
	Leader       string            `json:"leader,omitempty"`
	Team         []string          `json:"team,omitempty"`
	LadyHolder   string            `json:"lady_holder,omitempty"`
	Winner       string            `json:"winner,omitempty"`
}

// WaitingKind says what kind of input the match is currently blocked on.
type WaitingKind string

const (
	WaitingTeam     WaitingKind = "team"
	WaitingVotes    WaitingKind = "votes"
	WaitingOutcomes WaitingKind = "outcomes"
	WaitingLady     WaitingKind = "lady"
	WaitingAssassin WaitingKind = "assassin"
)

// Waiting names the players the match is blocked on, for the poke command.
type Waiting struct {
	Kind    WaitingKind `json:"kind"`
	Players []string    `json:"players"`
}

// Info returns the public snapshot.
func (m *Match) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := Info{
		Phase:    m.phase,
		Players:  playerNames(m.players),
		Features: make(map[string]bool, len(m.features)),
		Muted:    m.muted,
	}
	for k, v := range m.features {
		info.Features[k] = v
	}
	for _, group := range m.merged {
		names := make([]string, len(group))
		for i, r := range group {
			names[i] = r.Name()
		}
		info.Merged = append(info.Merged, names)
	}
	if m.lady != nil {
		info.LadyHolder = m.lady.Name
	}
	if m.winner != nil {
		info.Winner = m.winner.String()
	}
	if m.phase == PhaseLobby || m.phase == PhaseFinished {
		return info
	}

	q := m.currentQuest()
	info.Quest = m.questIndex + 1
	info.QuestResults = append([]bool(nil), m.questResults...)
	info.TeamSize = q.TeamSize
	info.FailsNeeded = q.FailsRequired
	info.RejectCount = m.rejectCount
	if l := m.leader(); l != nil {
		info.Leader = l.Name
	}
	info.Team = playerNames(m.team)
	return info
}

// Waiting reports who the match is blocked on, or nil when it is not
// waiting for anyone.
func (m *Match) Waiting() *Waiting {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case PhaseTeamBuilding:
		if l := m.leader(); l != nil {
			return &Waiting{Kind: WaitingTeam, Players: []string{l.Name}}
		}
	case PhaseVoting:
		var names []string
		for _, p := range m.players {
			if p.vote == nil {
				names = append(names, p.Name)
			}
		}
		return &Waiting{Kind: WaitingVotes, Players: names}
	case PhaseOutcome:
		var names []string
		for _, p := range m.team {
			if p.outcome == nil {
				names = append(names, p.Name)
			}
		}
		return &Waiting{Kind: WaitingOutcomes, Players: names}
	case PhaseLadyInvestigation:
		if m.lady != nil {
			return &Waiting{Kind: WaitingLady, Players: []string{m.lady.Name}}
		}
	case PhaseAssassination:
		if m.assassin != nil {
			return &Waiting{Kind: WaitingAssassin, Players: []string{m.assassin.Name}}
		}
	}
	return nil
}

// Phase returns the current state machine phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Muted reports whether silent mode is on.
func (m *Match) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// HasPlayer reports whether the given participant belongs to the match.
func (m *Match) HasPlayer(id PlayerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPlayer(id) != nil
}

// Results returns the per-role stats records of a finished match. Empty
// until the match finishes with a winner; a canceled match has none.
func (m *Match) Results() []PlayerResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PlayerResult(nil), m.results...)
}

// Alignments reports each player's alignment, for transports that render
// the role reveal at game over.
func (m *Match) Alignments() map[string]roles.Alignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]roles.Alignment, len(m.players))
	for _, p := range m.players {
		out[p.Name] = p.Alignment
	}
	return out
}
