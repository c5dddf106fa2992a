package store

import (
	"context"
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

// ErrNotFound is returned when a player has no stats row yet.
var ErrNotFound = errors.New("player not found")

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

type PlayerStats struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Wins        int    `json:"wins"`
	GamesPlayed int    `json:"games_played"`
}

// RecordJoin upserts the player row and bumps games_played.
func (db *DB) RecordJoin(ctx context.Context, playerID, name string) error {
	_, err := db.Exec(ctx, `
        INSERT INTO players(player_id, name, games_played)
        VALUES ($1,$2,1)
        ON CONFLICT (player_id) DO UPDATE
          SET name = EXCLUDED.name,
              games_played = players.games_played + 1,
              updated_at = now()
    `, playerID, name)
	return err
}

// RecordWin bumps the winner's counter. The registry calls this
// fire-and-forget after a match completes.
func (db *DB) RecordWin(ctx context.Context, playerID string) error {
	_, err := db.Exec(ctx, `
        UPDATE players
           SET wins = wins + 1,
               updated_at = now()
         WHERE player_id = $1
    `, playerID)
	return err
}

func (db *DB) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	var s PlayerStats
	err := db.QueryRow(ctx, `
        SELECT player_id, name, wins, games_played
          FROM players
         WHERE player_id = $1
    `, playerID).Scan(&s.PlayerID, &s.Name, &s.Wins, &s.GamesPlayed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
