package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// The two piles every deck always has.
const (
	PileRemaining = "remaining"
	PileDiscard   = "discard"
)

var (
	ErrUnknownPile       = errors.New("unknown pile")
	ErrProtectedName     = errors.New("protected pile name")
	ErrEmptyStock        = errors.New("remaining pile is empty")
	ErrInsufficientStock = errors.New("not enough cards remaining")
	ErrCardNotInSource   = errors.New("card not in source pile")
)

// ShuffleFunc reorders cards in place. The production shuffle is a seeded
// Fisher-Yates; tests substitute a fixed ordering for deterministic replay.
type ShuffleFunc func(cards []Card)

// Deck is a set of named, ordered piles that together always hold each of
// the 52 cards exactly once.
type Deck struct {
	piles   map[string][]Card
	shuffle ShuffleFunc
}

// NewDeck returns a freshly reset deck. Seed 0 means time-seeded.
func NewDeck(seed int64) *Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	return NewDeckWithShuffle(func(cards []Card) {
		for i := len(cards) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			cards[i], cards[j] = cards[j], cards[i]
		}
	})
}

// NewDeckWithShuffle returns a reset deck using the given shuffle.
func NewDeckWithShuffle(shuffle ShuffleFunc) *Deck {
	if shuffle == nil {
		shuffle = func([]Card) {}
	}
	d := &Deck{shuffle: shuffle}
	d.Reset()
	return d
}

// Reset places all 52 cards into "remaining" in shuffled order, empties
// "discard" and removes every other pile.
func (d *Deck) Reset() {
	all := make([]Card, DeckSize)
	for i := range all {
		all[i] = Card(i)
	}
	d.shuffle(all)
	d.piles = map[string][]Card{
		PileRemaining: all,
		PileDiscard:   {},
	}
}

// Shuffle collects the cards of every pile back into "remaining" in shuffled
// order. Pile names are kept, their contents cleared. Custom piles are
// gathered in sorted-name order so a stubbed shuffle stays deterministic.
func (d *Deck) Shuffle() {
	names := make([]string, 0, len(d.piles))
	for name := range d.piles {
		if name != PileRemaining && name != PileDiscard {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	all := make([]Card, 0, DeckSize)
	all = append(all, d.piles[PileRemaining]...)
	all = append(all, d.piles[PileDiscard]...)
	for _, name := range names {
		all = append(all, d.piles[name]...)
		d.piles[name] = []Card{}
	}
	d.shuffle(all)
	d.piles[PileRemaining] = all
	d.piles[PileDiscard] = []Card{}
}

// CreatePile adds an empty pile. Creating an existing pile is a no-op.
func (d *Deck) CreatePile(name string) error {
	if name == PileRemaining || name == PileDiscard {
		return fmt.Errorf("%w: %q", ErrProtectedName, name)
	}
	if _, ok := d.piles[name]; !ok {
		d.piles[name] = []Card{}
	}
	return nil
}

// DealToPile moves the front card of "remaining" to the back of name.
func (d *Deck) DealToPile(name string) error {
	pile, ok := d.piles[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPile, name)
	}
	stock := d.piles[PileRemaining]
	if len(stock) == 0 {
		return ErrEmptyStock
	}
	d.piles[PileRemaining] = stock[1:]
	d.piles[name] = append(pile, stock[0])
	return nil
}

// DealToPiles deals count cards to each named pile round-robin
// (pile 1, pile 2, pile 1, ...). It validates every pile name and the stock
// size up front so a failed deal leaves the deck untouched.
func (d *Deck) DealToPiles(names []string, count int) error {
	for _, name := range names {
		if _, ok := d.piles[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPile, name)
		}
	}
	if need := count * len(names); len(d.piles[PileRemaining]) < need {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientStock, need, len(d.piles[PileRemaining]))
	}
	for i := 0; i < count; i++ {
		for _, name := range names {
			if err := d.DealToPile(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// MoveCard moves one specific card between piles.
func (d *Deck) MoveCard(c Card, from, to string) error {
	src, ok := d.piles[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPile, from)
	}
	dst, ok := d.piles[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPile, to)
	}
	idx := -1
	for i, have := range src {
		if have == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s not in %q", ErrCardNotInSource, c, from)
	}
	// src and dst alias the same slice on a self-move; the card is already
	// where it belongs.
	if from == to {
		return nil
	}
	d.piles[from] = append(src[:idx], src[idx+1:]...)
	d.piles[to] = append(dst, c)
	return nil
}

// DrainPile appends the whole pile to "discard" and empties it.
func (d *Deck) DrainPile(name string) error {
	pile, ok := d.piles[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPile, name)
	}
	d.piles[PileDiscard] = append(d.piles[PileDiscard], pile...)
	d.piles[name] = []Card{}
	return nil
}

// Cards returns a snapshot of the pile's ordered contents.
func (d *Deck) Cards(name string) ([]Card, error) {
	pile, ok := d.piles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPile, name)
	}
	return append([]Card(nil), pile...), nil
}

// HasPile reports whether the named pile exists.
func (d *Deck) HasPile(name string) bool {
	_, ok := d.piles[name]
	return ok
}
