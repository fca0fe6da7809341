// Command console runs a hot-seat game in the terminal. All players share
// one screen and take turns typing commands, so role knowledge is only as
// secret as the seating arrangement.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/roundtable-games/avalon/internal/command"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
)

const revealDelay = 2 * time.Second

func main() {
	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Round ", pterm.FgLightBlue.ToStyle()),
		putils.LettersFromStringWithStyle("Table", pterm.FgLightRed.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}
	pterm.Println()

	registry := lobby.NewRegistry(lobby.Options{})

	hostName, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Host name").Show()
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		pterm.Error.Println("a host name is required")
		os.Exit(1)
	}

	room, host, err := registry.Create(lobby.CreateParams{HostName: hostName})
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	players := map[string]engine.PlayerID{hostName: host.ID}
	for {
		name, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Add player (empty when everyone is seated)").Show()
		name = strings.TrimSpace(name)
		if name == "" {
			break
		}
		p, err := room.AddPlayer(name)
		if err != nil {
			pterm.Warning.Println(err)
			continue
		}
		players[name] = p.ID
		pterm.Info.Printfln("%s takes a seat", name)
	}

	dispatcher := &command.Dispatcher{
		Room: room,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		Confirm: command.ConfirmFunc(func(_ context.Context, player engine.PlayerID, prompt string) bool {
			name := nameOf(room, player)
			ok, _ := pterm.DefaultInteractiveConfirm.
				WithDefaultText(fmt.Sprintf("%s: %s", name, prompt)).Show()
			return ok
		}),
	}

	pterm.Println()
	pterm.Info.Println("Type commands as '<player> <command>', for example 'alice join'.")
	pterm.Info.Println("Type 'help' for the command list, or 'quit' to leave.")
	pterm.Println()

	for {
		line, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(">").Show()
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return
		case line == "help":
			pterm.Println(command.HelpText)
			continue
		}

		speaker, rest, err := splitSpeaker(players, line)
		if err != nil {
			pterm.Warning.Println(err)
			continue
		}

		result := dispatcher.Execute(context.Background(), command.Request{
			Player: players[speaker],
			Name:   speaker,
			Line:   rest,
		})
		show(room, speaker, result)
	}
}

// splitSpeaker reads the acting player off the front of the line. A bare
// command with no recognized name is rejected so inputs stay unambiguous.
func splitSpeaker(players map[string]engine.PlayerID, line string) (speaker, rest string, err error) {
	name, rest, _ := strings.Cut(line, " ")
	for known := range players {
		if strings.EqualFold(known, name) {
			if strings.TrimSpace(rest) == "" {
				return "", "", fmt.Errorf("%s, say what you want to do", known)
			}
			return known, rest, nil
		}
	}
	return "", "", fmt.Errorf("no player named %q at the table, start lines with a player name", name)
}

func show(room *lobby.Room, speaker string, result command.Result) {
	if result.Reply != "" {
		pterm.Printfln("%s %s", pterm.LightCyan("(to "+speaker+")"), result.Reply)
	}
	if result.Announce != "" {
		pterm.Info.Println(result.Announce)
	}
	for _, e := range result.Events {
		if e.Suspense {
			spinner, _ := pterm.DefaultSpinner.Start("...")
			time.Sleep(revealDelay)
			_ = spinner.Stop()
		}
		text := command.RenderEvent(e)
		if text == "" {
			continue
		}
		if e.To != "" {
			pterm.Printfln("%s %s", pterm.LightMagenta("(only for "+nameOf(room, e.To)+")"), text)
			continue
		}
		pterm.Println(text)
	}
}

func nameOf(room *lobby.Room, id engine.PlayerID) string {
	if p, ok := room.Player(id); ok {
		return p.Name
	}
	return string(id)
}
