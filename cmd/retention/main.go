package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/newsvector/internal/app"
	config "github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	maxSize := flag.Int64("max-size", 0, "storage ceiling in bytes (overrides MAX_STORAGE_BYTES)")
	batchSize := flag.Int("batch-size", 0, "eviction batch size (overrides DELETE_BATCH_SIZE)")
	force := flag.Bool("force", false, "delete one batch unconditionally, skipping the usage estimator")
	flag.Parse()

	log := logger.NewSlogLogger()

	_ = godotenv.Load()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	if *maxSize > 0 {
		cfg.Retention.MaxStorageBytes = *maxSize
	}
	if *batchSize > 0 {
		cfg.Retention.BatchSize = *batchSize
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.RunRetention(ctx, *force)
	if runErr != nil {
		log.Errorf(runErr, "retention run failed")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Close(closeCtx); err != nil {
		log.Warnf("shutdown error: %v", err)
	}

	if runErr != nil {
		os.Exit(1)
	}
}
