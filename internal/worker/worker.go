// Package worker relays the outbox to the event publisher and serves the
// process health endpoints.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

// Processor is the part of the outbox processor the worker drives.
type Processor interface {
	Start(ctx context.Context)
	Stop()
	Stats() outbox.Stats
	Cleanup(ctx context.Context) (int64, error)
}

// Config tunes the background loops.
type Config struct {
	HealthAddr      string
	CleanupInterval time.Duration
	StatsInterval   time.Duration
}

// Worker owns the outbox loop and the health server.
type Worker struct {
	processor Processor
	health    *observability.HealthRegistry
	config    Config
	logger    *slog.Logger
}

// New creates a worker. A nil health registry reports healthy.
func New(processor Processor, health *observability.HealthRegistry, cfg Config, logger *slog.Logger) *Worker {
	if health == nil {
		health = observability.NewHealthRegistry()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{processor: processor, health: health, config: cfg, logger: logger}
}

// Run starts processing and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.processor.Start(ctx)
	defer w.processor.Stop()

	if w.config.HealthAddr != "" {
		srv := &http.Server{
			Addr:              w.config.HealthAddr,
			Handler:           w.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			w.logger.Info("health server starting", "addr", w.config.HealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				w.logger.Error("health server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				w.logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	cleanup := time.NewTicker(w.config.CleanupInterval)
	defer cleanup.Stop()
	stats := time.NewTicker(w.config.StatsInterval)
	defer stats.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down worker")
			return nil
		case <-cleanup.C:
			if _, err := w.processor.Cleanup(ctx); err != nil {
				w.logger.Error("outbox cleanup failed", "error", err)
			}
		case <-stats.C:
			w.logStats()
		}
	}
}

func (w *Worker) logStats() {
	s := w.processor.Stats()
	w.logger.Info("outbox stats",
		"running", s.Running,
		"published", s.PublishedCount,
		"failed", s.FailedCount,
		"dead", s.DeadCount,
		"lag_seconds", s.LagSeconds,
		"last_processed_at", s.LastProcessedAt,
		"last_error_at", s.LastErrorAt,
		"last_error", s.LastError,
	)
}

// Routes serves /healthz with processor counters and /readyz with dependency checks.
func (w *Worker) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		s := w.processor.Stats()
		status := "ok"
		rw.Header().Set("Content-Type", "application/json")
		if !s.Running {
			status = "stopped"
			rw.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"status":            status,
			"running":           s.Running,
			"published":         s.PublishedCount,
			"failed":            s.FailedCount,
			"dead":              s.DeadCount,
			"lag_seconds":       s.LagSeconds,
			"last_processed_at": s.LastProcessedAt,
			"last_error_at":     s.LastErrorAt,
			"last_error":        s.LastError,
		})
	})
	mux.Handle("/readyz", http.TimeoutHandler(w.health.Handler(), 2*time.Second, `{"status":"timeout"}`))
	return mux
}
