package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"wastetracker/internal/config"
	"wastetracker/internal/database"
	"wastetracker/internal/logger"
	"wastetracker/internal/server"
	"wastetracker/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bootstrap logger until the configured one is built
	_ = logger.Init("info", "json")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(ctx, err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Fatal(ctx, err)
	}
	defer logger.Sync()

	for _, w := range cfg.Warnings {
		logger.Warnf(ctx, "config: %s", w)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	app := server.New(cfg, st)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof(ctx, "server listening on port %s (store: %s)", cfg.HTTPPort, cfg.StoreDriver)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal(ctx, err)
		}
	case <-ctx.Done():
		logger.Infof(ctx, "shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			logger.Errorf(ctx, "shutdown: %v", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return store.NewMemory(), nil
	case config.StoreDriverPostgres:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewGorm(db), nil
	}
	return nil, errors.New("unknown store driver " + cfg.StoreDriver)
}
