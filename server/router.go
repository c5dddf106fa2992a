package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cribserver/server/engine"
	"cribserver/server/store"
)

type server struct {
	registry *engine.Registry
	db       *store.DB // nil when stats are disabled
	log      *zap.Logger
}

func Router(reg *engine.Registry, db *store.DB, logger *zap.Logger) http.Handler {
	s := &server{registry: reg, db: db, log: logger}

	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Get("/games", s.listGames)
	r.Route("/games/{gameID}", func(r chi.Router) {
		r.Post("/join", s.join)
		r.Post("/discard", s.discard)
		r.Post("/play", s.play)
		r.Get("/score", s.score)
		r.Get("/{playerID}/state", s.state)
	})
	r.Get("/players/{playerID}/stats", s.playerStats)

	return r
}

type joinRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type discardRequest struct {
	PlayerID    string        `json:"player_id"`
	CardIndices []engine.Card `json:"card_indices"`
}

type playRequest struct {
	PlayerID string      `json:"player_id"`
	CardIdx  engine.Card `json:"card_idx"`
}

func (s *server) listGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": s.registry.List()})
}

func (s *server) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "name is required"})
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}
	view, err := s.registry.Join(chi.URLParam(r, "gameID"), req.PlayerID, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.recordJoin(req.PlayerID, req.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "joined",
		"player_id": req.PlayerID,
		"state":     view,
	})
}

func (s *server) discard(w http.ResponseWriter, r *http.Request) {
	var req discardRequest
	if !decode(w, r, &req) {
		return
	}
	if !validCards(w, req.CardIndices) {
		return
	}
	view, err := s.registry.Discard(chi.URLParam(r, "gameID"), req.PlayerID, req.CardIndices)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "discarded", "state": view})
}

func (s *server) play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if !decode(w, r, &req) {
		return
	}
	if !validCards(w, []engine.Card{req.CardIdx}) {
		return
	}
	view, err := s.registry.Play(chi.URLParam(r, "gameID"), req.PlayerID, req.CardIdx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "played", "card": req.CardIdx, "state": view})
}

func (s *server) state(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry.State(chi.URLParam(r, "gameID"), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) score(w http.ResponseWriter, r *http.Request) {
	scores, err := s.registry.Scores(chi.URLParam(r, "gameID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *server) playerStats(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "player stats disabled"})
		return
	}
	stats, err := s.db.GetPlayerStats(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "player not found"})
			return
		}
		s.log.Error("player stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// recordJoin updates the persisted counters off the request path; stats are
// best-effort and never block or fail a join.
func (s *server) recordJoin(playerID, name string) {
	if s.db == nil {
		return
	}
	go func() {
		ctx, cancel := contextWithTimeout(5 * time.Second)
		defer cancel()
		if err := s.db.RecordJoin(ctx, playerID, name); err != nil {
			s.log.Warn("record join", zap.Error(err))
		}
	}()
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, engine.ErrGameNotFound),
		errors.Is(err, engine.ErrUnknownPlayer):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"detail": err.Error()})
}

func validCards(w http.ResponseWriter, cards []engine.Card) bool {
	for _, c := range cards {
		if !c.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "card index out of range"})
			return false
		}
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
