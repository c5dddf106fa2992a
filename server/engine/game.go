package engine

import (
	"errors"
	"fmt"
)

// Phase is the stage a match is in. Transitions are driven entirely by
// Join/Discard/Play; there are no timers.
type Phase int

const (
	PhaseJoin Phase = iota + 1
	PhaseDeal
	PhaseDiscard
	PhaseFlipStarter
	PhaseCount
	PhaseShow
	PhaseCrib
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseJoin:
		return "JOIN"
	case PhaseDeal:
		return "DEAL"
	case PhaseDiscard:
		return "DISCARD"
	case PhaseFlipStarter:
		return "FLIP_STARTER"
	case PhaseCount:
		return "COUNT"
	case PhaseShow:
		return "SHOW"
	case PhaseCrib:
		return "CRIB"
	case PhaseDone:
		return "DONE"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

var (
	ErrWrongPhase       = errors.New("wrong phase for this action")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrUnknownPlayer    = errors.New("player not in game")
	ErrDuplicatePlayer  = errors.New("player already in game")
	ErrGameFull         = errors.New("game full (2 players max)")
	ErrReservedPlayerID = errors.New("player id is a reserved pile name")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrWrongCardCount   = errors.New("must discard exactly 2 cards")
	ErrExceedsThirtyOne = errors.New("card exceeds 31")
)

// Game-specific piles on top of the deck's reserved ones. Each player also
// gets a hand pile named by their id.
const (
	PileStarter = "starter"
	PileCrib    = "crib"
	PilePlayed  = "phase1"
)

const dealCount = 6

// reservedPile reports whether name is one of the piles the match itself
// owns. Player ids double as hand-pile names, so they may not collide.
func reservedPile(name string) bool {
	switch name {
	case PileRemaining, PileDiscard, PileStarter, PileCrib, PilePlayed:
		return true
	}
	return false
}

// LogKind separates audit-only entries from lines shown to both players.
type LogKind int

const (
	LogPrivate LogKind = iota + 1
	LogPublic
)

type LogEntry struct {
	Kind    LogKind
	Message string
}

type Player struct {
	ID    string `json:"player_id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// TieBreak selects the winner when both players finish on the same score.
type TieBreak int

const (
	// TieBreakDraw declares no winner.
	TieBreakDraw TieBreak = iota
	// TieBreakDealerWins awards the tie to the last dealer.
	TieBreakDealerWins
)

// playRecord attributes a played card to its owner so each hand can be
// rebuilt for show scoring after play pools the cards in "phase1".
type playRecord struct {
	PlayerID string
	Card     Card
}

// Game is the state of one two-player match. It is not safe for concurrent
// use; the Registry serializes operations per match.
type Game struct {
	ID       string
	Players  []*Player
	Deck     *Deck
	Dealer   string
	Turn     string
	Phase    Phase
	TieBreak TieBreak

	played []playRecord
	log    []LogEntry
	winner string
}

func NewGame(id string, deck *Deck, tie TieBreak) *Game {
	return &Game{ID: id, Deck: deck, Phase: PhaseJoin, TieBreak: tie}
}

// Join seats a player. The second join deals the match: piles are created,
// the stock shuffled, six cards dealt to each player; the first joiner is
// dealer and the second receives the turn.
func (g *Game) Join(playerID, name string) error {
	if len(g.Players) >= 2 {
		return ErrGameFull
	}
	if reservedPile(playerID) {
		return fmt.Errorf("%w: %q", ErrReservedPlayerID, playerID)
	}
	if g.player(playerID) != nil {
		return ErrDuplicatePlayer
	}
	g.Players = append(g.Players, &Player{ID: playerID, Name: name})
	g.audit("JOIN", playerID, g.ID)
	g.logPublic("Player %s joined game", name)
	if len(g.Players) == 2 {
		g.start()
	}
	return nil
}

func (g *Game) start() {
	g.changePhase(PhaseDeal)
	d := g.Deck
	_ = d.CreatePile(PileStarter)
	_ = d.CreatePile(PileCrib)
	_ = d.CreatePile(PilePlayed)
	d.Shuffle()
	ids := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		_ = d.CreatePile(p.ID)
		ids = append(ids, p.ID)
	}
	// Cannot fail: a full shuffled stock and piles created just above.
	_ = d.DealToPiles(ids, dealCount)
	g.Dealer = g.Players[0].ID
	g.Turn = g.Players[1].ID
	g.changePhase(PhaseDiscard)
}

// Discard moves exactly two cards from the player's hand to the crib. When
// the crib is complete the starter is flipped and play begins with the
// non-dealer. Validation happens before any card moves.
func (g *Game) Discard(playerID string, cards []Card) error {
	if g.Phase != PhaseDiscard {
		return ErrWrongPhase
	}
	p := g.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if len(cards) != 2 {
		return fmt.Errorf("%w: got %d", ErrWrongCardCount, len(cards))
	}
	if cards[0] == cards[1] {
		return fmt.Errorf("%w: %s listed twice", ErrWrongCardCount, cards[0])
	}
	hand, err := g.Deck.Cards(playerID)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if !contains(hand, c) {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, c)
		}
	}

	for _, c := range cards {
		_ = g.Deck.MoveCard(c, playerID, PileCrib)
	}
	g.audit("DISCARD", playerID, joinCards(cards))
	g.logPublic("Player %s discarded 2 cards", p.Name)

	crib, _ := g.Deck.Cards(PileCrib)
	if len(crib) == 4 {
		g.changePhase(PhaseFlipStarter)
		_ = g.Deck.DealToPile(PileStarter)
		g.changePhase(PhaseCount)
		g.Turn = g.opponent(g.Dealer).ID
	}
	return nil
}

// Play plays one card onto the shared table, pegs its points, and advances
// the turn, handling Go and the end of the play phase.
func (g *Game) Play(playerID string, card Card) error {
	if g.Phase != PhaseCount {
		return ErrWrongPhase
	}
	p := g.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if g.Turn != playerID {
		return ErrNotYourTurn
	}
	hand, _ := g.Deck.Cards(playerID)
	if !contains(hand, card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	if total := g.playTotal(); total+card.Value() > 31 {
		return fmt.Errorf("%w: %s on count %d", ErrExceedsThirtyOne, card, total)
	}

	_ = g.Deck.MoveCard(card, playerID, PilePlayed)
	g.played = append(g.played, playRecord{PlayerID: playerID, Card: card})
	g.audit("PLAY", playerID, card.String())
	g.logPublic("Player %s played %s", p.Name, card)

	seq, _ := g.Deck.Cards(PilePlayed)
	p.Score += ScorePlay(seq, g.scoreTrace(p))

	opp := g.opponent(playerID)
	total := g.playTotal()
	switch {
	case g.canPlay(opp.ID, total):
		g.Turn = opp.ID
	case g.canPlay(playerID, total):
		// Opponent is stuck below 31; the same player keeps pegging.
	default:
		// Neither side can answer. One Go point, unless the 31 bonus
		// already pegged this very play.
		if total != 31 {
			p.Score++
			g.logPublic("%s 1 point for Go", p.Name)
		}
		_ = g.Deck.DrainPile(PilePlayed)
		if g.handSize(opp.ID) > 0 {
			g.Turn = opp.ID
		}
	}

	if g.handsExhausted() {
		g.finish()
	}
	return nil
}

// finish runs the show: each player's own four cards plus the starter, the
// second joiner first, then the dealer's crib, then the verdict.
func (g *Game) finish() {
	g.changePhase(PhaseShow)
	starterPile, _ := g.Deck.Cards(PileStarter)
	starter := starterPile[0]
	for i := len(g.Players) - 1; i >= 0; i-- {
		p := g.Players[i]
		p.Score += ScoreShow(g.playedBy(p.ID), starter, false, g.scoreTrace(p))
	}

	g.changePhase(PhaseCrib)
	dealer := g.player(g.Dealer)
	crib, _ := g.Deck.Cards(PileCrib)
	dealer.Score += ScoreShow(crib, starter, true, g.scoreTrace(dealer))

	g.declareWinner()
}

func (g *Game) declareWinner() {
	for _, p := range g.Players {
		g.logPublic("Player %s score: %d", p.Name, p.Score)
	}
	switch {
	case g.Players[0].Score > g.Players[1].Score:
		g.winner = g.Players[0].ID
	case g.Players[1].Score > g.Players[0].Score:
		g.winner = g.Players[1].ID
	case g.TieBreak == TieBreakDealerWins:
		g.winner = g.Dealer
	}
	if g.winner != "" {
		g.logPublic("Player %s wins", g.player(g.winner).Name)
	} else {
		g.logPublic("Game ended in a draw")
	}
	g.changePhase(PhaseDone)
}

// Winner returns the winning player's id, or "" before DONE and on a draw.
func (g *Game) Winner() string { return g.winner }

// playedBy rebuilds a player's hand from the played-card record, in play
// order.
func (g *Game) playedBy(playerID string) []Card {
	var out []Card
	for _, rec := range g.played {
		if rec.PlayerID == playerID {
			out = append(out, rec.Card)
		}
	}
	return out
}

// playTotal is the running count of the current sequence, derived from the
// shared table pile so a drain resets it for free.
func (g *Game) playTotal() int {
	seq, _ := g.Deck.Cards(PilePlayed)
	total := 0
	for _, c := range seq {
		total += c.Value()
	}
	return total
}

func (g *Game) canPlay(playerID string, total int) bool {
	hand, _ := g.Deck.Cards(playerID)
	for _, c := range hand {
		if total+c.Value() <= 31 {
			return true
		}
	}
	return false
}

func (g *Game) handSize(playerID string) int {
	hand, _ := g.Deck.Cards(playerID)
	return len(hand)
}

func (g *Game) handsExhausted() bool {
	if len(g.Players) < 2 {
		return false
	}
	for _, p := range g.Players {
		if g.handSize(p.ID) > 0 {
			return false
		}
	}
	return true
}

func (g *Game) player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) opponent(id string) *Player {
	for _, p := range g.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// scoreTrace prefixes scoring-engine lines with the player's name and
// appends them to the public log.
func (g *Game) scoreTrace(p *Player) func(string) {
	return func(msg string) { g.logPublic("%s %s", p.Name, msg) }
}

func (g *Game) changePhase(p Phase) {
	g.Phase = p
	g.logPublic("game.phase -> %s", p)
}

func (g *Game) logPublic(format string, args ...any) {
	g.log = append(g.log, LogEntry{Kind: LogPublic, Message: fmt.Sprintf(format, args...)})
}

// audit records a private entry of the form "VERB,player,subject".
func (g *Game) audit(verb, playerID, subject string) {
	g.log = append(g.log, LogEntry{Kind: LogPrivate, Message: fmt.Sprintf("%s,%s,%s", verb, playerID, subject)})
}

// PublicLog returns the log lines both players may see.
func (g *Game) PublicLog() []string {
	out := make([]string, 0, len(g.log))
	for _, e := range g.log {
		if e.Kind == LogPublic {
			out = append(out, e.Message)
		}
	}
	return out
}

// Log returns a snapshot of every entry, audit lines included.
func (g *Game) Log() []LogEntry {
	return append([]LogEntry(nil), g.log...)
}

// PlayerView is the projection of a match one player is allowed to see.
type PlayerView struct {
	GameID       string            `json:"game_id"`
	Players      []Player          `json:"players"`
	VisiblePiles map[string][]Card `json:"visible_piles,omitempty"`
	IsDealer     bool              `json:"is_dealer"`
	MyTurn       bool              `json:"my_turn"`
	Phase        string            `json:"phase"`
	CurrentTotal int               `json:"current_total"`
	GameLog      []string          `json:"game_log"`
}

// View builds the projection for one player: the starter, the shared table
// and their own hand, never the opponent's.
func (g *Game) View(playerID string) *PlayerView {
	piles := map[string][]Card{}
	names := []string{PileStarter, PilePlayed}
	// A crafted player id must not read the stock, the discard or the crib.
	if !reservedPile(playerID) {
		names = append(names, playerID)
	}
	for _, name := range names {
		if cards, err := g.Deck.Cards(name); err == nil {
			piles[name] = cards
		}
	}
	players := make([]Player, len(g.Players))
	for i, p := range g.Players {
		players[i] = *p
	}
	return &PlayerView{
		GameID:       g.ID,
		Players:      players,
		VisiblePiles: piles,
		IsDealer:     g.Dealer != "" && g.Dealer == playerID,
		MyTurn:       g.Turn != "" && g.Turn == playerID,
		Phase:        g.Phase.String(),
		CurrentTotal: g.playTotal(),
		GameLog:      g.PublicLog(),
	}
}

func contains(cards []Card, c Card) bool {
	for _, have := range cards {
		if have == c {
			return true
		}
	}
	return false
}
