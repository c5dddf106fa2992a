package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// newTestGame builds a two-seat match over a stacked deck. The first twelve
// cards of front are dealt round-robin (p1 gets the even indices), the
// thirteenth becomes the starter.
func newTestGame(t *testing.T, front []Card) *Game {
	t.Helper()
	g := NewGame("g1", NewDeckWithShuffle(stackShuffle(front)), TieBreakDraw)
	if err := g.Join("p1", "P1"); err != nil {
		t.Fatal(err)
	}
	if err := g.Join("p2", "P2"); err != nil {
		t.Fatal(err)
	}
	return g
}

func mustDiscard(t *testing.T, g *Game, playerID string, cards ...string) {
	t.Helper()
	if err := g.Discard(playerID, mustParse(t, cards...)); err != nil {
		t.Fatalf("Discard(%s, %v): %v", playerID, cards, err)
	}
}

func mustPlay(t *testing.T, g *Game, playerID, card string) {
	t.Helper()
	if err := g.Play(playerID, mustParse(t, card)[0]); err != nil {
		t.Fatalf("Play(%s, %s): %v", playerID, card, err)
	}
}

func playerScore(t *testing.T, g *Game, playerID string) int {
	t.Helper()
	for _, p := range g.Players {
		if p.ID == playerID {
			return p.Score
		}
	}
	t.Fatalf("no player %s", playerID)
	return 0
}

// A full all-clubs match, checked line for line against the public log. The
// deal gives p1 AC 3C 5C 7C 9C JC and p2 2C 4C 6C 8C 10C QC with KC as
// starter, producing flushes, nobs and a five-card crib flush.
func TestFullGameLogClubs(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := newTestGame(t, front)

	mustDiscard(t, g, "p1", "AC", "3C")
	mustDiscard(t, g, "p2", "QC", "2C")

	for _, mv := range []struct{ id, card string }{
		{"p2", "10C"}, {"p1", "5C"},
		{"p2", "8C"}, {"p1", "7C"},
		{"p2", "4C"}, {"p1", "JC"},
		{"p2", "6C"}, {"p1", "9C"},
	} {
		mustPlay(t, g, mv.id, mv.card)
	}

	if g.Phase != PhaseDone {
		t.Fatalf("phase = %s, want DONE", g.Phase)
	}
	if g.Winner() != "p1" {
		t.Errorf("winner = %q, want p1", g.Winner())
	}
	if got := playerScore(t, g, "p1"); got != 26 {
		t.Errorf("p1 score = %d, want 26", got)
	}
	if got := playerScore(t, g, "p2"); got != 5 {
		t.Errorf("p2 score = %d, want 5", got)
	}

	want := []string{
		"Player P1 joined game",
		"Player P2 joined game",
		"game.phase -> DEAL",
		"game.phase -> DISCARD",
		"Player P1 discarded 2 cards",
		"Player P2 discarded 2 cards",
		"game.phase -> FLIP_STARTER",
		"game.phase -> COUNT",
		"Player P2 played 10C",
		"Player P1 played 5C",
		"P1 2 points for 15 total",
		"Player P2 played 8C",
		"Player P1 played 7C",
		"P1 1 point for Go",
		"Player P2 played 4C",
		"Player P1 played JC",
		"Player P2 played 6C",
		"Player P1 played 9C",
		"P1 1 point for Go",
		"game.phase -> SHOW",
		"P2 4 points for flush of 10C, 8C, 4C, 6C",
		"P2 1 point for flush including starter KC",
		"P1 2 points for 15 from 5C, JC",
		"P1 2 points for 15 from 5C, KC",
		"P1 4 points for flush of 5C, 7C, JC, 9C",
		"P1 1 point for flush including starter KC",
		"P1 1 point for nobs with JC matching suit of starter KC",
		"game.phase -> CRIB",
		"P1 2 points for 15 from 3C, QC, 2C",
		"P1 2 points for 15 from 3C, 2C, KC",
		"P1 3 points for run of AC, 2C, 3C",
		"P1 5 points for crib flush of AC, 3C, QC, 2C, KC",
		"Player P1 score: 26",
		"Player P2 score: 5",
		"Player P1 wins",
		"game.phase -> DONE",
	}
	if got := g.PublicLog(); !reflect.DeepEqual(got, want) {
		t.Errorf("public log mismatch:\ngot:\n  %s\nwant:\n  %s",
			strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

// A mixed-suit match exercising the 31 bonus, pegged pairs and runs, Go for
// both sides, and a four-fifteen crib.
func TestFullGameLogMixedSuits(t *testing.T) {
	front := mustParse(t,
		"7H", "7D", "8D", "8H", "9C", "10C", "KD", "JD", "QS", "QH", "2C", "3S",
		"5H",
	)
	g := newTestGame(t, front)

	mustDiscard(t, g, "p1", "QS", "2C")
	mustDiscard(t, g, "p2", "QH", "3S")

	for _, mv := range []struct{ id, card string }{
		{"p2", "7D"}, {"p1", "7H"},
		{"p2", "8H"}, {"p1", "9C"},
		{"p2", "10C"}, {"p1", "8D"},
		{"p2", "JD"}, {"p1", "KD"},
	} {
		mustPlay(t, g, mv.id, mv.card)
	}

	if g.Winner() != "p1" {
		t.Errorf("winner = %q, want p1", g.Winner())
	}
	if got := playerScore(t, g, "p1"); got != 25 {
		t.Errorf("p1 score = %d, want 25", got)
	}
	if got := playerScore(t, g, "p2"); got != 7 {
		t.Errorf("p2 score = %d, want 7", got)
	}

	want := []string{
		"Player P1 joined game",
		"Player P2 joined game",
		"game.phase -> DEAL",
		"game.phase -> DISCARD",
		"Player P1 discarded 2 cards",
		"Player P2 discarded 2 cards",
		"game.phase -> FLIP_STARTER",
		"game.phase -> COUNT",
		"Player P2 played 7D",
		"Player P1 played 7H",
		"P1 2 points for pair of 7H, 7D",
		"Player P2 played 8H",
		"Player P1 played 9C",
		"P1 2 points for 31 total",
		"P1 3 points for run of 7H, 8H, 9C",
		"Player P2 played 10C",
		"Player P1 played 8D",
		"Player P2 played JD",
		"P2 1 point for Go",
		"Player P1 played KD",
		"P1 1 point for Go",
		"game.phase -> SHOW",
		"P2 2 points for 15 from 7D, 8H",
		"P2 2 points for 15 from 10C, 5H",
		"P2 2 points for 15 from JD, 5H",
		"P1 2 points for 15 from 7H, 8D",
		"P1 2 points for 15 from KD, 5H",
		"P1 3 points for run of 7H, 8D, 9C",
		"game.phase -> CRIB",
		"P1 2 points for 15 from QS, 5H",
		"P1 2 points for 15 from QH, 5H",
		"P1 2 points for 15 from QS, 2C, 3S",
		"P1 2 points for 15 from 2C, QH, 3S",
		"P1 2 points for 1 pair of QS, QH",
		"Player P1 score: 25",
		"Player P2 score: 7",
		"Player P1 wins",
		"game.phase -> DONE",
	}
	if got := g.PublicLog(); !reflect.DeepEqual(got, want) {
		t.Errorf("public log mismatch:\ngot:\n  %s\nwant:\n  %s",
			strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

// Hitting 31 exactly must not also award a Go, a card pushing past 31 must be
// rejected without moving, and a stuck opponent leaves the turn in place.
func TestPlayThirtyOneAndGo(t *testing.T) {
	front := mustParse(t,
		"QD", "10S", "JD", "9S", "KD", "2D", "3H", "4D", "5H", "6H", "7H", "8H",
		"AS",
	)
	g := newTestGame(t, front)

	mustDiscard(t, g, "p1", "5H", "7H")
	mustDiscard(t, g, "p2", "6H", "8H")

	mustPlay(t, g, "p2", "10S")
	mustPlay(t, g, "p1", "QD")
	mustPlay(t, g, "p2", "9S")

	// p1 cannot answer 29, so p2 keeps the turn.
	if g.Turn != "p2" {
		t.Fatalf("turn = %s, want p2", g.Turn)
	}

	// 29 + 4 busts; the hand must be untouched.
	if err := g.Play("p2", mustParse(t, "4D")[0]); !errors.Is(err, ErrExceedsThirtyOne) {
		t.Fatalf("overplay: %v, want ErrExceedsThirtyOne", err)
	}
	hand, _ := g.Deck.Cards("p2")
	if !contains(hand, mustParse(t, "4D")[0]) {
		t.Fatal("rejected play removed the card from hand")
	}

	mustPlay(t, g, "p2", "2D") // exactly 31
	mustPlay(t, g, "p1", "JD")
	mustPlay(t, g, "p2", "4D")
	mustPlay(t, g, "p1", "KD")
	mustPlay(t, g, "p1", "3H")

	if g.Phase != PhaseDone {
		t.Fatalf("phase = %s, want DONE", g.Phase)
	}
	var thirtyOnes, goes int
	for _, line := range g.PublicLog() {
		if strings.Contains(line, "2 points for 31 total") {
			thirtyOnes++
		}
		if strings.Contains(line, "1 point for Go") {
			goes++
		}
	}
	if thirtyOnes != 1 {
		t.Errorf("31 bonus logged %d times, want 1", thirtyOnes)
	}
	if goes != 1 {
		t.Errorf("Go logged %d times, want 1 (31 must not also award a Go)", goes)
	}
}

func TestJoinErrors(t *testing.T) {
	g := NewGame("g1", NewDeckWithShuffle(nil), TieBreakDraw)
	if err := g.Join("p1", "P1"); err != nil {
		t.Fatal(err)
	}
	if err := g.Join("p1", "P1 again"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Errorf("rejoin: %v, want ErrDuplicatePlayer", err)
	}
	if err := g.Join("p2", "P2"); err != nil {
		t.Fatal(err)
	}
	if err := g.Join("p3", "P3"); !errors.Is(err, ErrGameFull) {
		t.Errorf("third seat: %v, want ErrGameFull", err)
	}
	if g.Dealer != "p1" || g.Turn != "p2" {
		t.Errorf("dealer/turn = %s/%s, want p1/p2", g.Dealer, g.Turn)
	}
	if g.Phase != PhaseDiscard {
		t.Errorf("phase = %s, want DISCARD", g.Phase)
	}
}

// Player ids name hand piles, so an id colliding with a match-owned pile
// would let a player's hand alias the crib (or the stock) and duplicate
// cards on discard. Such ids are rejected at the door.
func TestJoinRejectsReservedIDs(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := NewGame("g1", NewDeckWithShuffle(stackShuffle(front)), TieBreakDraw)
	if err := g.Join("p1", "P1"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{PileRemaining, PileDiscard, PileStarter, PileCrib, PilePlayed} {
		if err := g.Join(id, "Mallory"); !errors.Is(err, ErrReservedPlayerID) {
			t.Errorf("Join(%q): %v, want ErrReservedPlayerID", id, err)
		}
	}
	if len(g.Players) != 1 {
		t.Fatalf("rejected joins still seated players: %d", len(g.Players))
	}

	// The match still starts normally for a legal second player.
	if err := g.Join("p2", "P2"); err != nil {
		t.Fatal(err)
	}
	mustDiscard(t, g, "p1", "AC", "3C")
	mustDiscard(t, g, "p2", "QC", "2C")
	checkConservation(t, g.Deck,
		PileRemaining, PileDiscard, PileStarter, PileCrib, PilePlayed, "p1", "p2")
}

func TestDiscardValidation(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := newTestGame(t, front)

	handBefore, _ := g.Deck.Cards("p1")

	cases := []struct {
		name  string
		cards []string
		want  error
	}{
		{"one card", []string{"AC"}, ErrWrongCardCount},
		{"three cards", []string{"AC", "3C", "5C"}, ErrWrongCardCount},
		{"same card twice", []string{"AC", "AC"}, ErrWrongCardCount},
		{"card not held", []string{"AC", "2C"}, ErrCardNotInHand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := g.Discard("p1", mustParse(t, tc.cards...)); !errors.Is(err, tc.want) {
				t.Fatalf("Discard = %v, want %v", err, tc.want)
			}
			hand, _ := g.Deck.Cards("p1")
			if !reflect.DeepEqual(hand, handBefore) {
				t.Fatal("rejected discard mutated the hand")
			}
		})
	}

	if err := g.Discard("ghost", mustParse(t, "AC", "3C")); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("unknown player: %v, want ErrUnknownPlayer", err)
	}
	if err := g.Play("p2", mustParse(t, "2C")[0]); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("play during discard: %v, want ErrWrongPhase", err)
	}
}

func TestPlayValidation(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := newTestGame(t, front)
	mustDiscard(t, g, "p1", "AC", "3C")

	// Crib incomplete, still DISCARD.
	if err := g.Play("p2", mustParse(t, "10C")[0]); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("play before count: %v, want ErrWrongPhase", err)
	}
	mustDiscard(t, g, "p2", "QC", "2C")

	if err := g.Discard("p1", mustParse(t, "5C", "7C")); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("discard during count: %v, want ErrWrongPhase", err)
	}
	if err := g.Play("p1", mustParse(t, "5C")[0]); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out of turn: %v, want ErrNotYourTurn", err)
	}
	if err := g.Play("p2", mustParse(t, "QC")[0]); !errors.Is(err, ErrCardNotInHand) {
		t.Errorf("discarded card: %v, want ErrCardNotInHand", err)
	}
	if err := g.Play("ghost", mustParse(t, "10C")[0]); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("unknown player: %v, want ErrUnknownPlayer", err)
	}
}

func TestAuditLog(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := newTestGame(t, front)
	mustDiscard(t, g, "p1", "AC", "3C")
	mustDiscard(t, g, "p2", "QC", "2C")
	mustPlay(t, g, "p2", "10C")

	var private []string
	for _, e := range g.Log() {
		if e.Kind == LogPrivate {
			private = append(private, e.Message)
		}
	}
	want := []string{
		"JOIN,p1,g1",
		"JOIN,p2,g1",
		"DISCARD,p1,AC, 3C",
		"DISCARD,p2,QC, 2C",
		"PLAY,p2,10C",
	}
	if !reflect.DeepEqual(private, want) {
		t.Errorf("audit = %q, want %q", private, want)
	}
	for _, line := range g.PublicLog() {
		for _, priv := range want {
			if line == priv {
				t.Errorf("audit entry %q leaked into the public log", priv)
			}
		}
	}
}

func TestDeclareWinnerTieBreak(t *testing.T) {
	tie := func(tb TieBreak) *Game {
		g := NewGame("g1", NewDeckWithShuffle(nil), tb)
		g.Players = []*Player{
			{ID: "p1", Name: "P1", Score: 20},
			{ID: "p2", Name: "P2", Score: 20},
		}
		g.Dealer = "p1"
		g.declareWinner()
		return g
	}

	g := tie(TieBreakDraw)
	if g.Winner() != "" {
		t.Errorf("draw winner = %q, want none", g.Winner())
	}
	if log := g.PublicLog(); !hasLine(log, "Game ended in a draw") {
		t.Errorf("missing draw line, log = %q", log)
	}

	g = tie(TieBreakDealerWins)
	if g.Winner() != "p1" {
		t.Errorf("dealer-wins winner = %q, want p1", g.Winner())
	}
	if log := g.PublicLog(); !hasLine(log, "Player P1 wins") {
		t.Errorf("missing win line, log = %q", log)
	}
}

func hasLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func TestPlayerView(t *testing.T) {
	front := mustParse(t,
		"AC", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "10C", "JC", "QC",
		"KC",
	)
	g := newTestGame(t, front)
	mustDiscard(t, g, "p1", "AC", "3C")
	mustDiscard(t, g, "p2", "QC", "2C")
	mustPlay(t, g, "p2", "10C")

	v := g.View("p1")
	if v.GameID != "g1" || v.Phase != "COUNT" {
		t.Errorf("view = %s/%s, want g1/COUNT", v.GameID, v.Phase)
	}
	if !v.IsDealer || !v.MyTurn {
		t.Errorf("is_dealer=%v my_turn=%v, want true/true", v.IsDealer, v.MyTurn)
	}
	if v.CurrentTotal != 10 {
		t.Errorf("current_total = %d, want 10", v.CurrentTotal)
	}
	if _, ok := v.VisiblePiles["p2"]; ok {
		t.Error("view exposes the opponent's hand")
	}
	if _, ok := v.VisiblePiles[PileCrib]; ok {
		t.Error("view exposes the crib")
	}
	if hand := v.VisiblePiles["p1"]; len(hand) != 4 {
		t.Errorf("own hand has %d cards, want 4", len(hand))
	}
	if table := v.VisiblePiles[PilePlayed]; len(table) != 1 || table[0].String() != "10C" {
		t.Errorf("table = %v, want [10C]", table)
	}
	if starter := v.VisiblePiles[PileStarter]; len(starter) != 1 || starter[0].String() != "KC" {
		t.Errorf("starter = %v, want [KC]", starter)
	}

	// A crafted player id must not leak the reserved piles.
	if v := g.View(PileRemaining); len(v.VisiblePiles[PileRemaining]) != 0 {
		t.Error("view leaked the stock")
	}
	if v := g.View(PileDiscard); len(v.VisiblePiles[PileDiscard]) != 0 {
		t.Error("view leaked the discard pile")
	}
	if v := g.View(PileCrib); len(v.VisiblePiles[PileCrib]) != 0 {
		t.Error("view leaked the crib")
	}
}
