package main

import (
	"context"
	"log"
	"os"
	"time"

	"cartservice/internal/config"
	"cartservice/internal/db"
	cartrepo "cartservice/internal/repository/cart"
)

// sweep deletes carts idle past CART_IDLE_TTL_SECONDS. Intended to run from
// cron; the aggregate itself never deletes carts.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[sweep] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	cutoff := time.Now().UTC().Add(-cfg.CartIdleTTL)
	deleted, err := cartrepo.NewPostgres(pool, logger).DeleteIdle(ctx, cutoff)
	if err != nil {
		logger.Fatalf("delete idle carts: %v", err)
	}

	logger.Printf("deleted %d carts idle since %s", deleted, cutoff.Format(time.RFC3339))
}
