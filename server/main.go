package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cribserver/server/engine"
	"cribserver/server/store"
)

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// SHUFFLE_SEED pins the deal for local debugging; 0 is time-seeded.
	seed, _ := strconv.ParseInt(getenv("SHUFFLE_SEED", "0"), 10, 64)

	tie := engine.TieBreakDraw
	if strings.EqualFold(getenv("TIE_BREAK", "draw"), "dealer") {
		tie = engine.TieBreakDealerWins
	}

	var db *store.DB
	if dsn := getenv("DATABASE_URL", ""); dsn != "" {
		db, err = store.Open(dsn)
		if err != nil {
			logger.Warn("stats disabled (open failed)", zap.Error(err))
			db = nil
		} else {
			defer db.Close(context.Background())
			if asBool(os.Getenv("AUTO_MIGRATE")) {
				if err := store.Migrate(context.Background(), db); err != nil {
					logger.Fatal("migrate", zap.Error(err))
				}
				logger.Info("migrated")
			}
		}
	} else {
		logger.Warn("DATABASE_URL not set; player stats disabled")
	}

	var record engine.ResultFunc
	if db != nil {
		record = func(winnerID string) {
			ctx, cancel := contextWithTimeout(5 * time.Second)
			defer cancel()
			if err := db.RecordWin(ctx, winnerID); err != nil {
				logger.Warn("record win", zap.Error(err))
			}
		}
	}

	reg := engine.NewRegistry(
		func() *engine.Deck { return engine.NewDeck(seed) },
		record,
		tie,
	)

	port := getenv("PORT", "5000")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(reg, db, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	logger.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
