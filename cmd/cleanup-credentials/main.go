// Command cleanup-credentials deletes credentials in the postgres session
// store that have not been written for longer than the retention period.
// It is intended to be invoked by an external cron job on hosts that share
// one database.
//
// Usage:
//
//	cleanup-credentials [-older-than=720h]
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/civic-client/internal/adapter/postgres"
	"github.com/heartmarshall/civic-client/internal/adapter/postgres/credential"
	"github.com/heartmarshall/civic-client/internal/app"
	"github.com/heartmarshall/civic-client/internal/config"
)

func main() {
	olderThan := flag.Duration("older-than", 30*24*time.Hour, "delete credentials not updated within this period")
	flag.Parse()

	if *olderThan <= 0 {
		log.Fatalf("-older-than must be positive (got %v)", *olderThan)
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_DSN is required")
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	threshold := time.Now().Add(-*olderThan)

	deleted, err := credential.DeleteStale(ctx, pool, threshold)
	if err != nil {
		logger.Error("credential cleanup failed",
			slog.String("error", err.Error()),
			slog.Time("threshold", threshold),
		)
		os.Exit(1)
	}

	logger.Info("credential cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Time("threshold", threshold),
	)
}
