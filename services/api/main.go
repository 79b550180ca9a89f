package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/priyanshu1258/Hackathon/services/api/config"
	"github.com/priyanshu1258/Hackathon/services/api/db"
	httpserver "github.com/priyanshu1258/Hackathon/services/api/http"
	"github.com/priyanshu1258/Hackathon/services/api/reading"
	"github.com/priyanshu1258/Hackathon/services/api/realtime"
	"github.com/priyanshu1258/Hackathon/services/api/simulation"
)

// gateway is what both store drivers provide.
type gateway interface {
	httpserver.Reader
	simulation.Gateway
	simulation.Trimmer
	realtime.Feed
	Ping(ctx context.Context) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	hub := realtime.NewHub(logger)
	defer hub.Close()

	sinks := []realtime.Sink{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := realtime.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		logger.Info("mirroring updates to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	go realtime.NewNotifier(store, logger, sinks...).Run(ctx)

	if cfg.SimulationEnabled {
		gen := reading.NewGenerator(nil, cfg.Location)
		driver := simulation.New(store, gen, simulation.Config{
			Interval:      cfg.SimulationInterval,
			CallTimeout:   cfg.StoreTimeout,
			RetainPerPair: cfg.RetainPerPair,
		}, logger)
		if err := driver.Start(ctx); err != nil {
			log.Fatalf("simulation error: %v", err)
		}
		defer driver.Stop()
	}

	srv := httpserver.New(cfg, store, realtime.NewHandler(hub), logger)
	log.Printf("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (gateway, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Printf("using in-memory store, readings are lost on exit")
		return db.NewMemStore(), nil
	}

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
