package engine

// EventType names an engine event. Transports render these as chat
// messages or envelopes.
type EventType string

const (
	EventPlayerJoined        EventType = "player_joined"
	EventPlayerLeft          EventType = "player_left"
	EventCanceled            EventType = "canceled"
	EventFeatureSet          EventType = "feature_set"
	EventRolesMerged         EventType = "roles_merged"
	EventRolesUnmerged       EventType = "roles_unmerged"
	EventMuted               EventType = "muted"
	EventUnmuted             EventType = "unmuted"
	EventVotekick            EventType = "votekick_progress"
	EventStarted             EventType = "started"
	EventFeatureDropped      EventType = "feature_dropped"
	EventRoleReveal          EventType = "role_reveal"
	EventEvilKnowledge       EventType = "evil_knowledge"
	EventMerlinKnowledge     EventType = "merlin_knowledge"
	EventPercivalReveal      EventType = "percival_reveal"
	EventVoteAck             EventType = "vote_ack"
	EventCardAck             EventType = "card_ack"
	EventTeamBuilding        EventType = "team_building"
	EventTeamUpdated         EventType = "team_updated"
	EventVotingOpened        EventType = "voting_opened"
	EventVoteResults         EventType = "vote_results"
	EventTeamApproved        EventType = "team_approved"
	EventTeamRejected        EventType = "team_rejected"
	EventOutcomeOpened       EventType = "outcome_opened"
	EventQuestResolved       EventType = "quest_resolved"
	EventLadyPrompt          EventType = "lady_prompt"
	EventInvestigation       EventType = "investigation"
	EventInvestigationResult EventType = "investigation_result"
	EventAssassinPrompt      EventType = "assassination_prompt"
	EventAssassination       EventType = "assassination"
	EventGameOver            EventType = "game_over"
)

// Event is a single notification produced by a match verb. When To is set
// the event must be delivered privately to that player only; otherwise it
// is broadcast to the whole group.
type Event struct {
	Type EventType
	To   PlayerID
	// Ephemeral asks the transport to retract the message after a short
	// delay (vote tallies reveal individual votes and are not kept around).
	Ephemeral bool
	// Suspense asks the transport to pause for dramatic effect before
	// delivering the event. Purely cosmetic.
	Suspense bool
	Payload  map[string]interface{}
}

func broadcast(t EventType, payload map[string]interface{}) Event {
	return Event{Type: t, Payload: payload}
}

func private(to PlayerID, t EventType, payload map[string]interface{}) Event {
	return Event{Type: t, To: to, Payload: payload}
}
