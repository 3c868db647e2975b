package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/adapter/cli/availability"
	"github.com/felixgeelhaar/solace/adapter/cli/booking"
	"github.com/felixgeelhaar/solace/adapter/cli/calendar"
	"github.com/felixgeelhaar/solace/adapter/cli/mcp"
	"github.com/felixgeelhaar/solace/internal/app"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg := observability.DefaultLogConfig()
	logCfg.Output = os.Stderr
	logCfg.ServiceName = "solace"
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

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
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands print a hint when no app is set.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(booking.Cmd)
	cli.AddCommand(availability.Cmd)
	cli.AddCommand(calendar.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.ExecuteContext(ctx)
}
