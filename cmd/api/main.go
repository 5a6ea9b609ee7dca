package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/zerotwo/cloudprobe/internal/api"
	"github.com/zerotwo/cloudprobe/internal/config"
	"github.com/zerotwo/cloudprobe/internal/db"
	"github.com/zerotwo/cloudprobe/internal/events"
	"github.com/zerotwo/cloudprobe/internal/ingest"
	"github.com/zerotwo/cloudprobe/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogDir, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema error: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
	defer publisher.Close()
	if publisher != nil {
		logger.Infof("alarm events enabled on topic %s", cfg.KafkaTopic)
	}

	pipeline := &ingest.Pipeline{Store: store, Alarms: publisher, Log: logger}

	srv := api.New(cfg, store, pipeline, logger)
	logger.Infof("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
