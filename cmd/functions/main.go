package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mealhow/internal/app"
	"mealhow/internal/config"
	"mealhow/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("Failed to initialize application", "error", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logr.Error("Failed to close application", "error", err)
		}
	}()

	srv := application.Server()
	if err := srv.ListenAndServe(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Error("Server failed", "error", err)
		return
	}
	logr.Info("Server exiting")
}
