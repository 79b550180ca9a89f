package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/priyanshu1258/Hackathon/services/api/db"
	"github.com/priyanshu1258/Hackathon/services/api/reading"
	"github.com/priyanshu1258/Hackathon/services/api/simulation"
	"github.com/priyanshu1258/Hackathon/services/sweep/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	var gw simulation.Gateway
	if cfg.DryRun {
		gw = dryRunGateway{out: log.Default()}
	} else {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		gw = store
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	driver := simulation.New(gw, reading.NewGenerator(nil, cfg.Location), simulation.Config{
		CallTimeout:   cfg.StoreTimeout,
		RetainPerPair: cfg.RetainPerPair,
	}, logger)

	res := driver.Tick(ctx)
	log.Printf("sweep ts=%s written=%d failed=%d (dry-run=%v)",
		time.UnixMilli(res.TS).UTC().Format(time.RFC3339), res.Written, res.Failed, cfg.DryRun)

	if res.Written == 0 && res.Failed > 0 {
		return fmt.Errorf("all %d writes failed", res.Failed)
	}
	return nil
}
