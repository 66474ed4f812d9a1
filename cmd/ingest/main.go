package main

import (
	"context"
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
	log := logger.NewSlogLogger()

	_ = godotenv.Load()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.RunIngest(ctx)
	if runErr != nil {
		log.Errorf(runErr, "ingest run failed")
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
