package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/village-health-surveillance/services/api/config"
	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	httpserver "github.com/02loveslollipop/village-health-surveillance/services/api/http"
	"github.com/02loveslollipop/village-health-surveillance/services/api/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL, db.Options{
		Migrate:         cfg.Migrate,
		MaxConns:        cfg.MaxConns,
		RestampOnUpdate: cfg.RestampOnUpdate,
	})
	if err != nil {
		logger.Error("db connection error", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := httpserver.New(cfg, store, logger, observability.NewMetrics())
	logger.Info("REST API listening", "addr", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("REST API stopped")
}
