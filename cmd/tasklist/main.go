// Package main is the entry point for the tasklist CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tasklist/internal/backend/googletasks"
	"tasklist/internal/backend/rest"
	"tasklist/internal/cli"
	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/service"
)

func main() {
	// Cancel on interrupt so in-flight requests and `serve` shut down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// newService builds the backend selected by cfg.Backend.
func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendREST:
		return rest.New(cfg, logger)
	case config.BackendGoogleTasks:
		return googletasks.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
