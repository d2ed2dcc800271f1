package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/village-health-surveillance/services/api/config"
	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/console/internal/cli"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd := cli.NewRootCommand(cfg.DatabaseURL, func(ctx context.Context, dsn string) (db.Store, error) {
		return db.Open(ctx, dsn, db.Options{
			Migrate:         cfg.Migrate,
			MaxConns:        cfg.MaxConns,
			RestampOnUpdate: cfg.RestampOnUpdate,
		})
	})

	err = cmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(cli.ReportError(cmd, err))
	}
}
