package command

import (
	"fmt"
	"strings"

	"github.com/roundtable-games/avalon/internal/roles"
)

// HelpText lists every verb with its synonyms.
const HelpText = `Commands:
  create (new)                 open a fresh game once the current one is over
  join (in, enter)             join the game before it starts
  leave (out, exit)            leave the game before it starts
  cancel (quit, stop, end)     cancel the game (owner only, asks for confirmation)
  votekick                     vote to cancel an abandoned game
  enable/disable <feature|all> toggle merlin, morgana, mordred, oberon, norebo, palm, lady
  merge <role> <role> ...      have several special roles held by one player
  unmerge                      clear all merges
  mute / unmute                make the game silent or talkative again
  start (begin)                deal roles and begin the first quest
  pick <players...> (choose)   nominate quest team members (leader only)
  pickme                       nominate yourself
  pickrandom (rand, random)    nominate a random player
  approve (yes, ok, ...)       approve the proposed team
  reject (no, nope, ...)       reject the proposed team
  success (succ)               play a success card on the quest
  fail (sab, sabotage)         play a fail card on the quest
  lady <player> (investigate)  use the Lady of the Lake
  assassinate <player> (shoot) take the Assassin's shot at Merlin
  info                         show the current game state
  poke (prod)                  show who the game is waiting on
  stats [filters]              show win statistics
  roles (characters)           describe every role
  rules                        show quest sizes and win conditions
  ping / coin                  the essentials`

// RolesText describes every role in play order of importance.
const RolesText = `Roles:
  Loyal Servant of Arthur   good, knows nothing, wins with good
  Minion of Mordred         evil, knows the other evil players
  Merlin                    good, sees the evil players (except Mordred), must stay hidden
  Assassin                  evil, gets one shot at Merlin if three quests succeed
  Morgana                   evil, appears to Percival as a possible Merlin
  Percival                  good, sees Merlin and Morgana without knowing which is which
  Mordred                   evil, invisible to Merlin
  Oberon                    evil, unknown to the other evil players and vice versa
  Norebo                    good, but the evil players believe Norebo is one of them
  Palm                      good, but both Merlin and the evil players see Palm as evil`

// RulesText summarizes win conditions and the quest schedule for the given
// player count (or all schedules when the count has no schedule).
func RulesText(playerCount int) string {
	var b strings.Builder
	b.WriteString("Good wins after three successful quests (and surviving the Assassin when Merlin is in play).\n")
	b.WriteString("Evil wins after three failed quests, five rejected teams in a row, or by assassinating Merlin.\n")
	b.WriteString("A proposed team needs a strict majority of approvals; ties reject.\n")

	writeRow := func(n int) {
		schedule, err := roles.Schedule(n)
		if err != nil {
			return
		}
		evil, _ := roles.EvilCount(n)
		parts := make([]string, len(schedule))
		for i, q := range schedule {
			if q.FailsRequired > 1 {
				parts[i] = fmt.Sprintf("%d*", q.TeamSize)
			} else {
				parts[i] = fmt.Sprintf("%d", q.TeamSize)
			}
		}
		fmt.Fprintf(&b, "  %2d players (%d evil): teams of %s\n", n, evil, strings.Join(parts, ", "))
	}

	if _, err := roles.Schedule(playerCount); err == nil {
		writeRow(playerCount)
	} else {
		for n := roles.MinPlayers; n <= roles.MaxPlayers; n++ {
			writeRow(n)
		}
	}
	b.WriteString("  (* two fail cards needed to fail the quest)")
	return b.String()
}
