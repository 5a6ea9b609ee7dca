package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/zerotwo/cloudprobe/internal/config"
	"github.com/zerotwo/cloudprobe/internal/db"
	"github.com/zerotwo/cloudprobe/internal/importer"
	"github.com/zerotwo/cloudprobe/internal/ingest"
	"github.com/zerotwo/cloudprobe/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("importer failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := flag.String("dir", cfg.ImportDir, "directory containing XML snapshot files")
	workers := flag.Int("workers", cfg.ImportWorkers, "number of parallel workers")
	flag.Parse()

	logger := logging.New(cfg.LogDir, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	pipeline := &ingest.Pipeline{Store: store, Log: logger}

	summary, err := importer.Run(ctx, pipeline, *dir, *workers, logger)
	if err != nil {
		return err
	}

	logger.WithField("run_id", summary.RunID).Infof(
		"import finished: %d files (%d failed), %d imported, %d duplicates, %d invalid, %d errors in %s",
		summary.Files, summary.FilesFailed, summary.Imported, summary.Duplicates,
		summary.Invalid, summary.Errors, summary.Elapsed.Round(time.Millisecond),
	)
	return nil
}
