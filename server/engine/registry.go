package engine

import (
	"errors"
	"sort"
	"sync"
)

var ErrGameNotFound = errors.New("game not found")

// DeckFactory builds the deck for a new match. Tests install stacked decks
// here for deterministic replay.
type DeckFactory func() *Deck

// ResultFunc receives the winner's player id once a match reaches DONE.
// It is invoked on its own goroutine, fire-and-forget.
type ResultFunc func(winnerID string)

type GameSummary struct {
	GameID      string `json:"game_id"`
	PlayerCount int    `json:"player_count"`
	Phase       string `json:"phase"`
}

// Registry owns every live match. Operations on the same match id are
// serialized through a per-match mutex; different matches run in parallel.
type Registry struct {
	mu      sync.Mutex
	games   map[string]*slot
	newDeck DeckFactory
	record  ResultFunc
	tie     TieBreak
}

type slot struct {
	mu       sync.Mutex
	game     *Game
	recorded bool
}

func NewRegistry(newDeck DeckFactory, record ResultFunc, tie TieBreak) *Registry {
	if newDeck == nil {
		newDeck = func() *Deck { return NewDeck(0) }
	}
	return &Registry{
		games:   map[string]*slot{},
		newDeck: newDeck,
		record:  record,
		tie:     tie,
	}
}

// Join seats a player, creating the match on first use. A finished match is
// superseded by a fresh one for the same id; it is never resumed.
func (r *Registry) Join(gameID, playerID, name string) (*PlayerView, error) {
	r.mu.Lock()
	s, ok := r.games[gameID]
	if !ok {
		s = &slot{game: NewGame(gameID, r.newDeck(), r.tie)}
		r.games[gameID] = s
	}
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.Phase == PhaseDone {
		s.game = NewGame(gameID, r.newDeck(), r.tie)
		s.recorded = false
	}
	if err := s.game.Join(playerID, name); err != nil {
		return nil, err
	}
	return s.game.View(playerID), nil
}

func (r *Registry) Discard(gameID, playerID string, cards []Card) (*PlayerView, error) {
	s, err := r.slot(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Discard(playerID, cards); err != nil {
		return nil, err
	}
	return s.game.View(playerID), nil
}

func (r *Registry) Play(gameID, playerID string, card Card) (*PlayerView, error) {
	s, err := r.slot(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Play(playerID, card); err != nil {
		return nil, err
	}
	if s.game.Phase == PhaseDone && !s.recorded {
		s.recorded = true
		if r.record != nil {
			if winner := s.game.Winner(); winner != "" {
				go r.record(winner)
			}
		}
	}
	return s.game.View(playerID), nil
}

// State returns the player-scoped projection without mutating anything.
func (r *Registry) State(gameID, playerID string) (*PlayerView, error) {
	s, err := r.slot(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.View(playerID), nil
}

// Scores returns player id -> current score for one match.
func (r *Registry) Scores(gameID string) (map[string]int, error) {
	s, err := r.slot(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make(map[string]int, len(s.game.Players))
	for _, p := range s.game.Players {
		scores[p.ID] = p.Score
	}
	return scores, nil
}

// List summarizes every match, sorted by id for stable output.
func (r *Registry) List() []GameSummary {
	r.mu.Lock()
	slots := make(map[string]*slot, len(r.games))
	for id, s := range r.games {
		slots[id] = s
	}
	r.mu.Unlock()

	out := make([]GameSummary, 0, len(slots))
	for id, s := range slots {
		s.mu.Lock()
		out = append(out, GameSummary{
			GameID:      id,
			PlayerCount: len(s.game.Players),
			Phase:       s.game.Phase.String(),
		})
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}

func (r *Registry) slot(gameID string) (*slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return s, nil
}
