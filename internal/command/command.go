// Package command parses chat commands, dispatches them to a room's
// match, and renders engine events as human-readable text. Both the
// WebSocket server and the console front-end drive the game through it.
package command

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
	"github.com/roundtable-games/avalon/internal/roles"
	"github.com/roundtable-games/avalon/internal/store"
)

// DefaultConfirmTimeout bounds how long a yes/no confirmation waits
// before defaulting to no.
const DefaultConfirmTimeout = 10 * time.Second

// aliases maps every accepted spelling to its canonical verb.
var aliases = map[string]string{
	"create": "create", "new": "create",
	"cancel": "cancel", "quit": "cancel", "stop": "cancel", "end": "cancel",
	"join": "join", "in": "join", "enter": "join",
	"leave": "leave", "out": "leave", "exit": "leave",
	"enable":  "enable",
	"disable": "disable",
	"merge":   "merge",
	"unmerge": "unmerge",
	"mute":    "mute",
	"unmute":  "unmute",
	"votekick": "votekick",
	"start":    "start", "begin": "start",
	"pick": "pick", "choose": "pick", "add": "pick", "picc": "pick",
	"pickme":     "pickme",
	"pickrandom": "pickrandom", "rand": "pickrandom", "random": "pickrandom",
	"approve": "approve", "accept": "approve", "yes": "approve", "yee": "approve",
	"ok": "approve", "okay": "approve", "aight": "approve", "yep": "approve", "yeet": "approve",
	"reject": "reject", "no": "reject", "nope": "reject", "noway": "reject", "rejecc": "reject",
	"success": "success", "succ": "success",
	"fail": "fail", "sab": "fail", "sabotage": "fail",
	"lady": "lady", "investigate": "lady",
	"assassinate": "assassinate", "shoot": "assassinate", "kill": "assassinate",
	"info": "info",
	"poke": "poke", "prod": "poke",
	"roles": "roles", "characters": "roles", "chars": "roles",
	"rules": "rules",
	"stats": "stats",
	"help":  "help",
	"ping":  "ping",
	"coin":  "coin", "coinflip": "coin",
}

// featureAliases maps user spellings to feature keys. Percival rides on
// the morgana feature and merlin's spellings include his assassin.
var featureAliases = map[string]string{
	"merlin":   roles.FeatureMerlin,
	"assassin": roles.FeatureMerlin,
	"morgana":  roles.FeatureMorgana,
	"percival": roles.FeatureMorgana,
	"perc":     roles.FeatureMorgana,
	"mordred":  roles.FeatureMordred,
	"oberon":   roles.FeatureOberon,
	"norebo":   roles.FeatureNorebo,
	"palm":     roles.FeaturePalm,
	"lady":     roles.FeatureLady,
}

// Normalize resolves a verb spelling to its canonical verb.
func Normalize(verb string) (string, bool) {
	v, ok := aliases[strings.ToLower(verb)]
	return v, ok
}

// Parse splits a command line into its canonical verb and arguments.
func Parse(line string) (verb string, args []string, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	verb, ok := Normalize(fields[0])
	if !ok {
		return "", nil, fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return verb, fields[1:], nil
}

// Confirmer collects a yes/no answer from one player. Implementations
// must default to no when the player does not answer in time.
type Confirmer interface {
	Confirm(ctx context.Context, player engine.PlayerID, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, player engine.PlayerID, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, player engine.PlayerID, prompt string) bool {
	return f(ctx, player, prompt)
}

// ParseAnswer reads a yes/no reply. ok is false when the text is neither.
func ParseAnswer(s string) (yes, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "yee", "yep", "yeah", "ok", "okay", "aight", "yeet":
		return true, true
	case "no", "n", "nope", "noway", "nah":
		return false, true
	}
	return false, false
}

// StatsProvider serves the stats verb. Implemented by store.RecordStore;
// nil disables the verb.
type StatsProvider interface {
	Stats(ctx context.Context, f store.StatsFilter) ([]store.StatsRow, error)
}

// Dispatcher executes commands against one room.
type Dispatcher struct {
	Room    *lobby.Room
	Confirm Confirmer
	Stats   StatsProvider
	Rand    *rand.Rand
}

// Request is one command issued by a player.
type Request struct {
	Player engine.PlayerID
	Name   string
	Line   string
}

// Result is what a command produced. Events go through the transport's
// event rendering; Reply goes privately to the issuer; Announce is plain
// broadcast text. Ping marks an announce that may notify the whole group.
type Result struct {
	Events   []engine.Event
	Reply    string
	Announce string
	Ping     bool
}

// Execute runs one command line. Engine errors come back as private
// replies, never as Go errors; only transport-level failures error out.
func (d *Dispatcher) Execute(ctx context.Context, req Request) Result {
	verb, args, err := Parse(req.Line)
	if err != nil {
		return Result{Reply: err.Error()}
	}
	match := d.Room.Match()

	switch verb {
	case "create":
		if _, err := d.Room.NewGame(req.Player); err != nil {
			return Result{Reply: err.Error()}
		}
		return Result{
			Announce: fmt.Sprintf("%s is gathering a round table! Type join to enter.", req.Name),
			Ping:     d.Room.AllowPing(),
		}

	case "cancel":
		if match.Phase() == engine.PhaseFinished {
			return Result{Reply: "there is no game to cancel"}
		}
		if d.Confirm != nil && !d.Confirm.Confirm(ctx, req.Player, "Cancel the current game?") {
			return Result{Reply: "cancel aborted"}
		}
		return d.verb(match.Cancel(req.Player))

	case "join":
		return d.verb(match.Join(req.Player, req.Name))
	case "leave":
		return d.verb(match.Leave(req.Player))
	case "votekick":
		return d.verb(match.Votekick(req.Player))
	case "mute":
		return d.verb(match.Mute(req.Player))
	case "unmute":
		return d.verb(match.Unmute(req.Player))
	case "unmerge":
		return d.verb(match.Unmerge(req.Player))
	case "start":
		return d.verb(match.Start(ctx, req.Player))

	case "enable", "disable":
		if len(args) != 1 {
			return Result{Reply: fmt.Sprintf("usage: %s <feature|all>", verb)}
		}
		enabled := verb == "enable"
		if strings.EqualFold(args[0], "all") {
			return d.verb(match.SetAllFeatures(req.Player, enabled))
		}
		feature, ok := featureAliases[strings.ToLower(args[0])]
		if !ok {
			return Result{Reply: fmt.Sprintf("unrecognized feature %q: should be one of %s, all", args[0], featureKeys())}
		}
		return d.verb(match.SetFeature(req.Player, feature, enabled))

	case "merge":
		if len(args) < 2 {
			return Result{Reply: "usage: merge <role> <role> [roles...]"}
		}
		rs := make([]roles.Role, 0, len(args))
		for _, a := range args {
			r, err := roles.Parse(a)
			if err != nil {
				return Result{Reply: err.Error()}
			}
			rs = append(rs, r)
		}
		return d.verb(match.Merge(req.Player, rs))

	case "pick":
		if len(args) == 0 {
			return Result{Reply: "usage: pick <player> [players...]"}
		}
		targets := make([]engine.PlayerID, 0, len(args))
		for _, a := range args {
			id, err := d.resolvePlayer(a)
			if err != nil {
				return Result{Reply: err.Error()}
			}
			targets = append(targets, id)
		}
		return d.verb(match.Pick(req.Player, targets))

	case "pickme":
		return d.verb(match.Pick(req.Player, []engine.PlayerID{req.Player}))
	case "pickrandom":
		return d.verb(match.PickRandom(req.Player))

	case "approve":
		return d.verb(match.Vote(req.Player, true))
	case "reject":
		return d.verb(match.Vote(req.Player, false))
	case "success":
		return d.verb(match.PlayCard(req.Player, true))
	case "fail":
		return d.verb(match.PlayCard(req.Player, false))

	case "lady":
		if len(args) != 1 {
			return Result{Reply: "usage: lady <player>"}
		}
		id, err := d.resolvePlayer(args[0])
		if err != nil {
			return Result{Reply: err.Error()}
		}
		return d.verb(match.Investigate(req.Player, id))

	case "assassinate":
		if len(args) != 1 {
			return Result{Reply: "usage: assassinate <player>"}
		}
		id, err := d.resolvePlayer(args[0])
		if err != nil {
			return Result{Reply: err.Error()}
		}
		return d.verb(match.Assassinate(req.Player, id))

	case "info":
		return Result{Reply: RenderInfo(match.Info())}
	case "poke":
		return Result{Reply: RenderWaiting(match.Waiting())}
	case "roles":
		return Result{Reply: RolesText}
	case "rules":
		return Result{Reply: RulesText(len(match.Info().Players))}
	case "help":
		return Result{Reply: HelpText}
	case "ping":
		return Result{Reply: "pong"}
	case "coin":
		if d.Rand != nil && d.Rand.Intn(2) == 0 {
			return Result{Announce: fmt.Sprintf("%s flips a coin: heads!", req.Name)}
		}
		return Result{Announce: fmt.Sprintf("%s flips a coin: tails!", req.Name)}

	case "stats":
		if d.Stats == nil {
			return Result{Reply: "stats are not available here"}
		}
		filter, err := ParseStatsFilter(args)
		if err != nil {
			return Result{Reply: err.Error()}
		}
		rows, err := d.Stats.Stats(ctx, filter)
		if err != nil {
			return Result{Reply: "could not load stats, try again later"}
		}
		return Result{Reply: RenderStats(rows)}
	}

	return Result{Reply: fmt.Sprintf("unknown command %q, try help", verb)}
}

func (d *Dispatcher) verb(events []engine.Event, err error) Result {
	if err != nil {
		return Result{Reply: err.Error()}
	}
	return Result{Events: events}
}

// resolvePlayer matches a name argument against the room roster, first
// exactly, then as a unique prefix, case-insensitively.
func (d *Dispatcher) resolvePlayer(arg string) (engine.PlayerID, error) {
	lower := strings.ToLower(arg)
	var prefix []*lobby.Player
	for _, p := range d.Room.Players() {
		name := strings.ToLower(p.Name)
		if name == lower {
			return p.ID, nil
		}
		if strings.HasPrefix(name, lower) {
			prefix = append(prefix, p)
		}
	}
	switch len(prefix) {
	case 1:
		return prefix[0].ID, nil
	case 0:
		return "", fmt.Errorf("no player named %q in this room", arg)
	default:
		names := make([]string, len(prefix))
		for i, p := range prefix {
			names[i] = p.Name
		}
		return "", fmt.Errorf("%q is ambiguous between %s", arg, strings.Join(names, ", "))
	}
}

func featureKeys() string {
	keys := make([]string, 0, len(roles.FeatureNames))
	for k := range roles.FeatureNames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
