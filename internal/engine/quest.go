package engine

import (
	"github.com/roundtable-games/avalon/internal/roles"
)

func (m *Match) currentQuest() roles.Quest {
	return m.schedule[m.questIndex]
}

func (m *Match) leader() *Player {
	if m.leaderIndex < 0 || m.leaderIndex >= len(m.players) {
		return nil
	}
	return m.players[m.leaderIndex]
}

// openTeamBuilding rotates the leader, clears the team, and announces the
// new round. Callers hold the lock.
func (m *Match) openTeamBuilding() []Event {
	m.leaderIndex = (m.leaderIndex + 1) % len(m.players)
	m.team = nil
	m.phase = PhaseTeamBuilding
	q := m.currentQuest()
	return []Event{broadcast(EventTeamBuilding, map[string]interface{}{
		"quest":          m.questIndex + 1,
		"leader_id":      string(m.leader().ID),
		"leader":         m.leader().Name,
		"team_size":      q.TeamSize,
		"fails_required": q.FailsRequired,
		"reject_count":   m.rejectCount,
	})}
}

// Pick adds nominees to the current team proposal. Leader only; the whole
// batch is validated before any nominee is added.
func (m *Match) Pick(id PlayerID, targets []PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pickLocked(id, targets)
}

func (m *Match) pickLocked(id PlayerID, targets []PlayerID) ([]Event, error) {
	if m.phase != PhaseTeamBuilding {
		return nil, phaseErrf("it is not time to pick a team right now")
	}
	leader := m.leader()
	if leader.ID != id {
		return nil, authErrf("you are not currently the leader of the team")
	}
	size := m.currentQuest().TeamSize
	if len(m.team) == size {
		return nil, validationErrf("your team is currently full")
	}
	var added []*Player
	for _, t := range targets {
		p := m.findPlayer(t)
		if p == nil {
			return nil, validationErrf("that player is not part of the game")
		}
		for _, member := range append(m.team, added...) {
			if member == p {
				return nil, validationErrf("%s is already part of the team", p.Name)
			}
		}
		added = append(added, p)
		if len(m.team)+len(added) > size {
			return nil, validationErrf("the team only has room for %d members", size)
		}
	}
	m.team = append(m.team, added...)

	events := []Event{broadcast(EventTeamUpdated, map[string]interface{}{
		"leader":    leader.Name,
		"added":     playerNames(added),
		"team":      playerNames(m.team),
		"remaining": size - len(m.team),
	})}
	if len(m.team) == size {
		events = append(events, m.openVoting()...)
	}
	return events, nil
}

// PickRandom adds one random player who is not yet on the team.
func (m *Match) PickRandom(id PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseTeamBuilding {
		return nil, phaseErrf("it is not time to pick a team right now")
	}
	var pool []*Player
	for _, p := range m.players {
		onTeam := false
		for _, member := range m.team {
			if member == p {
				onTeam = true
				break
			}
		}
		if !onTeam {
			pool = append(pool, p)
		}
	}
	pick := pool[m.rng.Intn(len(pool))]
	return m.pickLocked(id, []PlayerID{pick.ID})
}

// openVoting resets every vote and opens the ballot.
func (m *Match) openVoting() []Event {
	m.phase = PhaseVoting
	for _, p := range m.players {
		p.vote = nil
	}
	return []Event{broadcast(EventVotingOpened, map[string]interface{}{
		"team": playerNames(m.team),
	})}
}

// Vote records an approve/reject ballot. Every participant votes;
// re-submission overwrites the previous ballot silently. The last vote in
// triggers tabulation exactly once.
func (m *Match) Vote(id PlayerID, approve bool) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseVoting {
		return nil, phaseErrf("there is no team vote in progress")
	}
	p := m.findPlayer(id)
	if p == nil {
		return nil, validationErrf("you are not part of this game")
	}
	updated := p.vote != nil
	v := approve
	p.vote = &v

	events := []Event{private(id, EventVoteAck, map[string]interface{}{
		"updated": updated,
	})}
	for _, other := range m.players {
		if other.vote == nil {
			return events, nil
		}
	}
	// All ballots are in. The latch guarantees a single tabulation even if
	// concurrent voters both reach this point.
	if m.tabulatingVotes {
		return events, nil
	}
	m.tabulatingVotes = true
	events = append(events, m.tabulateVotes()...)
	m.tabulatingVotes = false
	return events, nil
}

func (m *Match) tabulateVotes() []Event {
	votes := make(map[string]bool, len(m.players))
	approvals := 0
	for _, p := range m.players {
		votes[p.Name] = *p.vote
		if *p.vote {
			approvals++
		}
		p.vote = nil
	}
	events := []Event{{
		Type:      EventVoteResults,
		Ephemeral: true,
		Payload:   map[string]interface{}{"votes": votes},
	}}

	if approvals > len(m.players)/2 {
		// Strict majority approves; a tie rejects.
		m.rejectCount = 1
		events = append(events, broadcast(EventTeamApproved, map[string]interface{}{
			"team": playerNames(m.team),
		}))
		return append(events, m.openOutcome()...)
	}

	m.rejectCount++
	events = append(events, broadcast(EventTeamRejected, map[string]interface{}{
		"team":         playerNames(m.team),
		"reject_count": m.rejectCount,
	}))
	switch EvaluateWin(m.questResults, m.rejectCount, m.features[roles.FeatureMerlin], true) {
	case VerdictEvilWins:
		return append(events, m.finishMatch(roles.Evil, "five_rejections")...)
	default:
		return append(events, m.openTeamBuilding()...)
	}
}

// openOutcome fixes the team and lets its members play their cards.
func (m *Match) openOutcome() []Event {
	m.phase = PhaseOutcome
	for _, p := range m.team {
		p.outcome = nil
	}
	return []Event{broadcast(EventOutcomeOpened, map[string]interface{}{
		"team": playerNames(m.team),
	})}
}

// PlayCard records a success/fail card for a team member. Good-aligned
// players may never play fail. The last card in triggers tabulation
// exactly once.
func (m *Match) PlayCard(id PlayerID, success bool) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseOutcome {
		return nil, phaseErrf("it is too early to play success or fail cards")
	}
	p := m.findPlayer(id)
	if p == nil {
		return nil, validationErrf("you are not part of this game")
	}
	onTeam := false
	for _, member := range m.team {
		if member == p {
			onTeam = true
			break
		}
	}
	if !onTeam {
		return nil, validationErrf("you are not part of this team")
	}
	if p.outcome != nil {
		return nil, validationErrf("you have already played a success/fail card")
	}
	if p.Alignment == roles.Good && !success {
		return nil, validationErrf("servants of Arthur are not permitted to play fail cards")
	}
	v := success
	p.outcome = &v

	events := []Event{private(id, EventCardAck, nil)}
	for _, member := range m.team {
		if member.outcome == nil {
			return events, nil
		}
	}
	if m.tabulatingOutcomes {
		return events, nil
	}
	m.tabulatingOutcomes = true
	events = append(events, m.tabulateOutcomes()...)
	m.tabulatingOutcomes = false
	return events, nil
}

func (m *Match) tabulateOutcomes() []Event {
	fails := 0
	for _, p := range m.team {
		if !*p.outcome {
			fails++
		}
	}
	for _, p := range m.players {
		p.outcome = nil
	}
	succeeded := fails < m.currentQuest().FailsRequired
	m.questResults = append(m.questResults, succeeded)

	events := []Event{{
		Type:     EventQuestResolved,
		Suspense: true,
		Payload: map[string]interface{}{
			"quest":     m.questIndex + 1,
			"fails":     fails,
			"team_size": len(m.team),
			"success":   succeeded,
		},
	}}

	switch EvaluateWin(m.questResults, m.rejectCount, m.features[roles.FeatureMerlin], false) {
	case VerdictEvilWins:
		return append(events, m.finishMatch(roles.Evil, "three_fails")...)
	case VerdictGoodWins:
		return append(events, m.finishMatch(roles.Good, "three_successes")...)
	case VerdictOpenAssassination:
		return append(events, m.openAssassination()...)
	}

	if m.lady != nil && len(m.questResults) >= 2 {
		m.phase = PhaseLadyInvestigation
		return append(events, broadcast(EventLadyPrompt, map[string]interface{}{
			"holder_id": string(m.lady.ID),
			"holder":    m.lady.Name,
		}))
	}
	return append(events, m.advanceQuest()...)
}

func (m *Match) advanceQuest() []Event {
	m.questIndex++
	return m.openTeamBuilding()
}

// Investigate lets the Lady holder learn one player's true alignment. The
// privilege then transfers to the target, who can never be targeted again.
func (m *Match) Investigate(id PlayerID, target PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseLadyInvestigation {
		return nil, phaseErrf("it is not currently time to use the Lady of the Lake")
	}
	if m.lady == nil || m.lady.ID != id {
		return nil, authErrf("you do not currently have the Lady of the Lake")
	}
	p := m.findPlayer(target)
	if p == nil {
		return nil, validationErrf("that player is not part of the game")
	}
	if p.ID == id {
		return nil, validationErrf("you cannot investigate yourself")
	}
	if m.investigated[p.ID] {
		return nil, validationErrf("%s has already had the Lady of the Lake", p.Name)
	}

	holder := m.lady
	events := []Event{
		broadcast(EventInvestigation, map[string]interface{}{
			"holder": holder.Name, "target": p.Name,
		}),
		private(holder.ID, EventInvestigationResult, map[string]interface{}{
			"target": p.Name, "alignment": p.Alignment.String(),
		}),
	}
	m.investigated[p.ID] = true
	m.lady = p
	return append(events, m.advanceQuest()...), nil
}

func (m *Match) openAssassination() []Event {
	for _, p := range m.players {
		if p.holds(roles.Assassin) {
			m.assassin = p
			break
		}
	}
	if m.assassin == nil {
		// Merlin feature without an Assassin in play; good wins outright.
		return m.finishMatch(roles.Good, "three_successes")
	}
	m.phase = PhaseAssassination
	return []Event{broadcast(EventAssassinPrompt, map[string]interface{}{
		"assassin_id": string(m.assassin.ID),
		"assassin":    m.assassin.Name,
	})}
}

// Assassinate is the Assassin's single guess at Merlin. Evil wins iff the
// target holds the Merlin role; there is no retry.
func (m *Match) Assassinate(id PlayerID, target PlayerID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseAssassination {
		return nil, phaseErrf("it is not currently time to assassinate someone")
	}
	if m.assassin == nil || m.assassin.ID != id {
		return nil, authErrf("you are not the Assassin")
	}
	p := m.findPlayer(target)
	if p == nil {
		return nil, validationErrf("that player is not part of the game")
	}

	hit := p.holds(roles.Merlin)
	events := []Event{broadcast(EventAssassination, map[string]interface{}{
		"assassin": m.assassin.Name, "target": p.Name, "hit": hit,
	})}
	if hit {
		events = append(events, m.finishMatch(roles.Evil, "merlin_identified")...)
	} else {
		events = append(events, m.finishMatch(roles.Good, "merlin_survived")...)
	}
	// The reveal deserves its pause.
	events[len(events)-1].Suspense = true
	return events, nil
}

func (m *Match) finishMatch(winner roles.Alignment, reason string) []Event {
	m.phase = PhaseFinished
	m.owner = ""
	m.winner = &winner

	reveals := make([]map[string]interface{}, len(m.players))
	m.results = m.results[:0]
	for i, p := range m.players {
		reveals[i] = map[string]interface{}{"name": p.Name, "roles": p.roleNames()}
		for _, r := range p.Roles {
			m.results = append(m.results, PlayerResult{
				PlayerID:       p.ID,
				Name:           p.Name,
				Role:           r,
				Won:            p.Alignment == winner,
				CompositeCount: len(p.Roles),
			})
		}
	}
	return []Event{broadcast(EventGameOver, map[string]interface{}{
		"winner":  winner.String(),
		"reason":  reason,
		"reveals": reveals,
	})}
}
