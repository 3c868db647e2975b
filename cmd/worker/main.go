package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/solace/adapter/cli"
	"github.com/felixgeelhaar/solace/internal/app"
	"github.com/felixgeelhaar/solace/internal/worker"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

func main() {
	logCfg := observability.DefaultLogConfig()
	logCfg.Output = os.Stdout
	logCfg.ServiceName = "solace-worker"
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logCfg.Level = cfg.LogLevel
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logger = observability.NewLogger(logCfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	logger.Info("starting outbox worker",
		"driver", container.DBDriver,
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
		"retention", cfg.OutboxRetention(),
	)

	w := worker.New(container.OutboxProcessor, container.Health, worker.Config{
		HealthAddr:      cfg.WorkerHealthAddr,
		CleanupInterval: time.Hour,
		StatsInterval:   time.Minute,
	}, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
