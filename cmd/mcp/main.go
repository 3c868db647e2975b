package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/app"
	mcpinternal "github.com/felixgeelhaar/solace/internal/mcp"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

func main() {
	logCfg := observability.DefaultLogConfig()
	logCfg.Output = os.Stderr
	logCfg.ServiceName = "solace-mcp"
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logCfg.Level = cfg.LogLevel
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	if cfg.IsDevelopment() {
		logCfg.Level = "debug"
	}
	logger = observability.NewLogger(logCfg)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
