package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/roundtable-games/avalon/internal/roles"
	"github.com/roundtable-games/avalon/internal/store"
)

// ParseStatsFilter reads stats verb arguments. Accepted forms:
// player:<name>, role:<role>, since:<yyyy-mm-dd>, until:<yyyy-mm-dd>,
// good, evil, or a bare player name.
func ParseStatsFilter(args []string) (store.StatsFilter, error) {
	var f store.StatsFilter
	for _, a := range args {
		key, value, hasValue := strings.Cut(a, ":")
		key = strings.ToLower(key)
		switch {
		case key == "good" && !hasValue:
			good := roles.Good
			f.Alignment = &good
		case key == "evil" && !hasValue:
			evil := roles.Evil
			f.Alignment = &evil
		case key == "player" && hasValue:
			f.PlayerName = value
		case key == "role" && hasValue:
			r, err := roles.Parse(value)
			if err != nil {
				return f, err
			}
			f.Role = &r
		case key == "since" && hasValue:
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return f, fmt.Errorf("bad date %q, want yyyy-mm-dd", value)
			}
			f.Since = &t
		case key == "until" && hasValue:
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return f, fmt.Errorf("bad date %q, want yyyy-mm-dd", value)
			}
			end := t.Add(24*time.Hour - time.Nanosecond)
			f.Until = &end
		case !hasValue:
			if r, err := roles.Parse(a); err == nil {
				f.Role = &r
			} else {
				f.PlayerName = a
			}
		default:
			return f, fmt.Errorf("unrecognized stats filter %q", a)
		}
	}
	return f, nil
}

// RenderStats formats stats rows as an aligned table, best ratio first
// (the store already sorts).
func RenderStats(rows []store.StatsRow) string {
	if len(rows) == 0 {
		return "No games on record yet."
	}
	nameWidth := len("player")
	for _, r := range rows {
		if len(r.PlayerName) > nameWidth {
			nameWidth = len(r.PlayerName)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %7s  %7s  %6s", nameWidth, "player", "games", "wins", "ratio")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%-*s  %7.1f  %7.1f  %5.1f%%", nameWidth, r.PlayerName, r.Games, r.Wins, r.Ratio*100)
	}
	return b.String()
}
