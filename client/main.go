// Terminal client for the cribbage server. It joins a match over HTTP and
// polls the player-scoped state, prompting for discards and plays.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"cribserver/server/engine"
)

type client struct {
	base     string
	gameID   string
	playerID string
	http     *http.Client
}

type joinResponse struct {
	Status   string             `json:"status"`
	PlayerID string             `json:"player_id"`
	State    *engine.PlayerView `json:"state"`
}

type actionResponse struct {
	Status string             `json:"status"`
	Detail string             `json:"detail"`
	State  *engine.PlayerView `json:"state"`
}

func (c *client) post(path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Detail == "" {
			e.Detail = resp.Status
		}
		return fmt.Errorf("%s: %s", path, e.Detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) join(name string) (*engine.PlayerView, error) {
	var out joinResponse
	err := c.post("/games/"+c.gameID+"/join", map[string]string{
		"player_id": c.playerID,
		"name":      name,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.playerID = out.PlayerID
	return out.State, nil
}

func (c *client) state() (*engine.PlayerView, error) {
	resp, err := c.http.Get(c.base + "/games/" + c.gameID + "/" + c.playerID + "/state")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state: %s", resp.Status)
	}
	var view engine.PlayerView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *client) discard(cards []engine.Card) (*engine.PlayerView, error) {
	var out actionResponse
	err := c.post("/games/"+c.gameID+"/discard", map[string]any{
		"player_id":    c.playerID,
		"card_indices": cards,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.State, nil
}

func (c *client) play(card engine.Card) (*engine.PlayerView, error) {
	var out actionResponse
	err := c.post("/games/"+c.gameID+"/play", map[string]any{
		"player_id": c.playerID,
		"card_idx":  card,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.State, nil
}

func main() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Crib", pterm.FgGreen.ToStyle()),
		putils.LettersFromStringWithStyle("bage", pterm.FgDarkGray.ToStyle()),
	).Render()

	base, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Server address").
		WithDefaultValue("http://localhost:5000").Show()
	gameID, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Game id").
		WithDefaultValue("table1").Show()
	name, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Your name").Show()
	pterm.Println()

	c := &client{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		gameID: strings.TrimSpace(gameID),
		http:   &http.Client{Timeout: 10 * time.Second},
	}

	view, err := c.join(strings.TrimSpace(name))
	if err != nil {
		pterm.Error.Printfln("join failed: %v", err)
		os.Exit(1)
	}
	pterm.Success.Printfln("Joined game %s as %s", c.gameID, c.playerID)

	logged := 0
	for {
		logged = printNewLog(view, logged)

		switch {
		case view.Phase == "DONE":
			renderTable(c, view)
			pterm.Success.Println("Game over")
			return
		case view.Phase == "DISCARD" && len(view.VisiblePiles[c.playerID]) > 4:
			renderTable(c, view)
			view, err = c.discard(chooseDiscards(view.VisiblePiles[c.playerID]))
		case view.Phase == "COUNT" && view.MyTurn:
			renderTable(c, view)
			view, err = c.play(choosePlay(view, view.VisiblePiles[c.playerID]))
		default:
			view, err = c.wait(view)
		}
		if err != nil {
			pterm.Error.Printfln("%v", err)
			view, err = c.state()
			if err != nil {
				pterm.Error.Printfln("lost connection: %v", err)
				os.Exit(1)
			}
		}
	}
}

// wait polls until the state changes: a new phase, the turn arriving, or
// fresh log lines.
func (c *client) wait(prev *engine.PlayerView) (*engine.PlayerView, error) {
	spinner, _ := pterm.DefaultSpinner.Start("Waiting for opponent...")
	for {
		time.Sleep(time.Second)
		view, err := c.state()
		if err != nil {
			spinner.Fail()
			return nil, err
		}
		if view.Phase != prev.Phase || view.MyTurn != prev.MyTurn || len(view.GameLog) != len(prev.GameLog) {
			spinner.Success()
			return view, nil
		}
	}
}

func printNewLog(view *engine.PlayerView, logged int) int {
	for _, line := range view.GameLog[logged:] {
		pterm.Info.Println(line)
	}
	return len(view.GameLog)
}

func renderTable(c *client, view *engine.PlayerView) {
	box := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2)

	scores := make([]string, 0, len(view.Players))
	for _, p := range view.Players {
		scores = append(scores, fmt.Sprintf("%s: %d", p.Name, p.Score))
	}

	starter := "-"
	if s := view.VisiblePiles["starter"]; len(s) > 0 {
		starter = s[0].String()
	}
	table := joinCardNames(view.VisiblePiles["phase1"])
	hand := joinCardNames(view.VisiblePiles[c.playerID])

	role := "pone"
	if view.IsDealer {
		role = "dealer"
	}
	box.WithTitle(fmt.Sprintf("%s [%s]", view.Phase, role)).Println(fmt.Sprintf(
		"Scores   %s\nStarter  %s\nTable    %s (count %d)\nHand     %s",
		strings.Join(scores, "   "), starter, table, view.CurrentTotal, hand,
	))
}

func joinCardNames(cards []engine.Card) string {
	if len(cards) == 0 {
		return "-"
	}
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}

// chooseDiscards prompts for the two crib cards, one at a time.
func chooseDiscards(hand []engine.Card) []engine.Card {
	remaining := append([]engine.Card(nil), hand...)
	out := make([]engine.Card, 0, 2)
	for len(out) < 2 {
		options := make([]string, len(remaining))
		for i, c := range remaining {
			options[i] = c.String()
		}
		pick, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText(fmt.Sprintf("Discard to crib (%d of 2)", len(out)+1)).
			WithOptions(options).Show()
		for i, c := range remaining {
			if c.String() == pick {
				out = append(out, c)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return out
}

// choosePlay offers only the cards that fit under 31.
func choosePlay(view *engine.PlayerView, hand []engine.Card) engine.Card {
	playable := make([]engine.Card, 0, len(hand))
	options := make([]string, 0, len(hand))
	for _, c := range hand {
		if view.CurrentTotal+c.Value() <= 31 {
			playable = append(playable, c)
			options = append(options, c.String())
		}
	}
	pick, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Play a card (count %d)", view.CurrentTotal)).
		WithOptions(options).Show()
	for i, o := range options {
		if o == pick {
			return playable[i]
		}
	}
	return playable[0]
}
