package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/roles"
)

// RenderEvent turns one engine event into chat text. Delivery concerns
// (private recipient, suspense pause, ephemeral retraction) stay on the
// event; this is only the wording.
func RenderEvent(e engine.Event) string {
	p := e.Payload
	switch e.Type {
	case engine.EventPlayerJoined:
		return fmt.Sprintf("%s joined the game.", str(p, "name"))
	case engine.EventPlayerLeft:
		return fmt.Sprintf("%s left the game.", str(p, "name"))
	case engine.EventCanceled:
		if str(p, "reason") == "votekick" {
			return "The people have spoken. The game has been canceled."
		}
		return "The game has been canceled."
	case engine.EventFeatureSet:
		state := "disabled"
		if boolean(p, "enabled") {
			state = "enabled"
		}
		if str(p, "feature") == "all" {
			return fmt.Sprintf("All features are now %s.", state)
		}
		return fmt.Sprintf("%s is now %s.", str(p, "name"), state)
	case engine.EventRolesMerged:
		return fmt.Sprintf("The following roles will be held by a single player: %s.",
			strings.Join(strs(p, "roles"), ", "))
	case engine.EventRolesUnmerged:
		return "All role merges have been cleared."
	case engine.EventMuted:
		return "This will be a silent game. Keep the table talk down once it starts."
	case engine.EventUnmuted:
		return "The game is no longer silent."
	case engine.EventVotekick:
		return fmt.Sprintf("%d of %d votes to cancel the game.", integer(p, "count"), integer(p, "threshold"))
	case engine.EventStarted:
		return fmt.Sprintf("The game has begun! Play order: %s.", strings.Join(strs(p, "players"), ", "))
	case engine.EventFeatureDropped:
		if str(p, "reason") == "merlin_off" {
			return fmt.Sprintf("%s cannot be in play without Merlin and has been disabled.",
				strings.Join(strs(p, "roles"), "/"))
		}
		return fmt.Sprintf("Not enough players for %s; the feature has been disabled.",
			strings.Join(strs(p, "roles"), "/"))
	case engine.EventRoleReveal:
		if str(p, "alignment") == roles.Evil.String() {
			return fmt.Sprintf("You are %s. You serve the forces of evil.", str(p, "role"))
		}
		return fmt.Sprintf("You are %s. You serve the forces of good.", str(p, "role"))
	case engine.EventEvilKnowledge:
		return fmt.Sprintf("Your fellow agents of evil are: %s.", strings.Join(strs(p, "names"), ", "))
	case engine.EventMerlinKnowledge:
		return fmt.Sprintf("The agents of evil are: %s.", strings.Join(strs(p, "names"), ", "))
	case engine.EventPercivalReveal:
		return fmt.Sprintf("Merlin and Morgana are %s, in no particular order.",
			strings.Join(strs(p, "names"), " and "))
	case engine.EventVoteAck:
		if boolean(p, "updated") {
			return "Your vote has been updated."
		}
		return "Your vote has been recorded."
	case engine.EventCardAck:
		return "Your card has been played."
	case engine.EventTeamBuilding:
		msg := fmt.Sprintf("Quest %d: %s must pick a team of %d.",
			integer(p, "quest"), str(p, "leader"), integer(p, "team_size"))
		if integer(p, "fails_required") == 2 {
			msg += " This quest needs two fail cards to fail."
		}
		if integer(p, "reject_count") == 4 {
			msg += " Careful: one more rejected team hands evil the victory."
		}
		return msg
	case engine.EventTeamUpdated:
		return fmt.Sprintf("%s added %s to the team. %d spot(s) left.",
			str(p, "leader"), strings.Join(strs(p, "added"), ", "), integer(p, "remaining"))
	case engine.EventVotingOpened:
		return fmt.Sprintf("The proposed team is %s. Everyone: approve or reject.",
			strings.Join(strs(p, "team"), ", "))
	case engine.EventVoteResults:
		votes, _ := p["votes"].(map[string]bool)
		names := make([]string, 0, len(votes))
		for name := range votes {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			v := "reject"
			if votes[name] {
				v = "approve"
			}
			parts[i] = fmt.Sprintf("%s: %s", name, v)
		}
		return "Votes: " + strings.Join(parts, ", ")
	case engine.EventTeamApproved:
		return "The team has been approved. Quest members, play your cards."
	case engine.EventTeamRejected:
		return fmt.Sprintf("The team has been rejected. Rejections in a row: %d.", integer(p, "reject_count"))
	case engine.EventOutcomeOpened:
		return fmt.Sprintf("%s: decide the quest with success or fail.", strings.Join(strs(p, "team"), ", "))
	case engine.EventQuestResolved:
		fails := integer(p, "fails")
		cards := "card"
		if fails != 1 {
			cards = "cards"
		}
		if boolean(p, "success") {
			return fmt.Sprintf("Quest %d succeeded! (%d fail %s)", integer(p, "quest"), fails, cards)
		}
		return fmt.Sprintf("Quest %d failed! (%d fail %s)", integer(p, "quest"), fails, cards)
	case engine.EventLadyPrompt:
		return fmt.Sprintf("%s holds the Lady of the Lake and must investigate someone. Use lady <player>.",
			str(p, "holder"))
	case engine.EventInvestigation:
		return fmt.Sprintf("%s turns the Lady of the Lake on %s.", str(p, "holder"), str(p, "target"))
	case engine.EventInvestigationResult:
		return fmt.Sprintf("%s serves the forces of %s.", str(p, "target"), strings.ToLower(str(p, "alignment")))
	case engine.EventAssassinPrompt:
		return fmt.Sprintf("Three quests have succeeded, but evil has one last chance: %s, the Assassin, must identify Merlin. Use assassinate <player>.",
			str(p, "assassin"))
	case engine.EventAssassination:
		return fmt.Sprintf("%s takes aim at %s...", str(p, "assassin"), str(p, "target"))
	case engine.EventGameOver:
		var b strings.Builder
		if str(p, "winner") == roles.Evil.String() {
			b.WriteString("The forces of evil are victorious!")
		} else {
			b.WriteString("The forces of good are victorious!")
		}
		switch str(p, "reason") {
		case "five_rejections":
			b.WriteString(" Five teams were rejected in a row.")
		case "three_fails":
			b.WriteString(" Three quests have failed.")
		case "merlin_identified":
			b.WriteString(" Merlin has been slain.")
		case "merlin_survived":
			b.WriteString(" The Assassin guessed wrong.")
		}
		if reveals, ok := p["reveals"].([]map[string]interface{}); ok {
			b.WriteString("\nThe roles were:")
			for _, r := range reveals {
				b.WriteString(fmt.Sprintf("\n  %s: %s", r["name"], r["roles"]))
			}
		}
		return b.String()
	}
	return ""
}

// RenderInfo formats the public match snapshot.
func RenderInfo(info engine.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\n", info.Phase)
	fmt.Fprintf(&b, "Players (%d): %s\n", len(info.Players), strings.Join(info.Players, ", "))

	var on, off []string
	for k, v := range info.Features {
		if v {
			on = append(on, k)
		} else {
			off = append(off, k)
		}
	}
	sort.Strings(on)
	sort.Strings(off)
	fmt.Fprintf(&b, "Features on: %s\n", orNone(on))
	fmt.Fprintf(&b, "Features off: %s\n", orNone(off))
	for _, group := range info.Merged {
		fmt.Fprintf(&b, "Merged: %s\n", strings.Join(group, "/"))
	}
	if info.Muted {
		b.WriteString("Silent game.\n")
	}
	if info.Quest > 0 {
		fmt.Fprintf(&b, "Quest %d: team of %d, %d fail(s) to fail\n", info.Quest, info.TeamSize, info.FailsNeeded)
		results := make([]string, len(info.QuestResults))
		for i, ok := range info.QuestResults {
			if ok {
				results[i] = "success"
			} else {
				results[i] = "fail"
			}
		}
		fmt.Fprintf(&b, "Quests so far: %s\n", orNone(results))
		fmt.Fprintf(&b, "Rejections in a row: %d\n", info.RejectCount)
		if info.Leader != "" {
			fmt.Fprintf(&b, "Leader: %s\n", info.Leader)
		}
		if len(info.Team) > 0 {
			fmt.Fprintf(&b, "Team: %s\n", strings.Join(info.Team, ", "))
		}
	}
	if info.LadyHolder != "" {
		fmt.Fprintf(&b, "Lady of the Lake: %s\n", info.LadyHolder)
	}
	if info.Winner != "" {
		fmt.Fprintf(&b, "Winner: %s\n", info.Winner)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderWaiting formats the poke output.
func RenderWaiting(w *engine.Waiting) string {
	if w == nil {
		return "Not waiting on anyone right now."
	}
	names := strings.Join(w.Players, ", ")
	switch w.Kind {
	case engine.WaitingTeam:
		return fmt.Sprintf("Waiting on %s to pick the team.", names)
	case engine.WaitingVotes:
		return fmt.Sprintf("Waiting on votes from: %s.", names)
	case engine.WaitingOutcomes:
		return fmt.Sprintf("Waiting on quest cards from: %s.", names)
	case engine.WaitingLady:
		return fmt.Sprintf("Waiting on %s to use the Lady of the Lake.", names)
	case engine.WaitingAssassin:
		return fmt.Sprintf("Waiting on %s to pick an assassination target.", names)
	}
	return fmt.Sprintf("Waiting on: %s.", names)
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func str(p map[string]interface{}, key string) string {
	s, _ := p[key].(string)
	return s
}

func strs(p map[string]interface{}, key string) []string {
	s, _ := p[key].([]string)
	return s
}

func boolean(p map[string]interface{}, key string) bool {
	b, _ := p[key].(bool)
	return b
}

func integer(p map[string]interface{}, key string) int {
	n, _ := p[key].(int)
	return n
}
