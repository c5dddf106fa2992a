package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Card identifies one of the 52 cards as an integer in [0,52).
// rank = id%13 + 1 (ace..king), suit = id/13 (clubs, diamonds, hearts, spades).
type Card int

// DeckSize is the number of distinct cards.
const DeckSize = 52

// JackRank is the rank used for the nobs bonus.
const JackRank = 11

var (
	ErrInvalidCardFormat = errors.New("invalid card: must be 2-3 chars")
	ErrInvalidCardRank   = errors.New("invalid card rank")
	ErrInvalidCardSuit   = errors.New("invalid card suit")
)

var rankTokens = [13]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var suitTokens = [4]string{"C", "D", "H", "S"}

// Rank returns 1 (ace) through 13 (king).
func (c Card) Rank() int { return int(c)%13 + 1 }

// Suit returns 0..3: clubs, diamonds, hearts, spades.
func (c Card) Suit() int { return int(c) / 13 }

// Value is the counting value: aces count 1, face cards count 10.
func (c Card) Value() int {
	if r := c.Rank(); r < 10 {
		return r
	}
	return 10
}

// Valid reports whether c is inside [0,52). Cards arriving from the wire
// must be checked before any other method is called on them.
func (c Card) Valid() bool { return c >= 0 && c < DeckSize }

// String renders the display form, e.g. "5C", "10D", "JS".
func (c Card) String() string { return rankTokens[int(c)%13] + suitTokens[int(c)/13] }

// ParseCard inverts String. Surrounding whitespace is ignored so padded
// forms like " 5C" still round-trip.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardFormat, s)
	}
	rankTok, suitTok := s[:len(s)-1], s[len(s)-1:]
	rank := -1
	for i, tok := range rankTokens {
		if tok == rankTok {
			rank = i
			break
		}
	}
	if rank < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardRank, s)
	}
	suit := -1
	for i, tok := range suitTokens {
		if tok == suitTok {
			suit = i
			break
		}
	}
	if suit < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCardSuit, s)
	}
	return Card(suit*13 + rank), nil
}

// joinCards renders "AC, 2C, 3C" for log messages.
func joinCards(cards []Card) string {
	tokens := make([]string, len(cards))
	for i, c := range cards {
		tokens[i] = c.String()
	}
	return strings.Join(tokens, ", ")
}
