package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

// ProcessorConfig tunes the outbox loop.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept. Zero disables cleanup.
	Retention time.Duration
}

// DefaultProcessorConfig returns the worker defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
	}
}

// Processor relays outbox messages to a publisher.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	wg      sync.WaitGroup
	stop    chan struct{}
	running bool

	statsMu sync.Mutex
	stats   Stats
}

// ProcessorOption customises a Processor.
type ProcessorOption func(*Processor)

// WithMetrics records publish outcomes.
func WithMetrics(m observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the poll loop until ctx is done or Stop is called.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
}

// Stop halts the loop and waits for the in-flight batch.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	interval := p.config.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastCleanup := p.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
			if p.config.Retention > 0 && p.now().Sub(lastCleanup) >= time.Hour {
				lastCleanup = p.now()
				if _, err := p.Cleanup(ctx); err != nil {
					p.logger.Error("outbox cleanup failed", "error", err)
				}
			}
		}
	}
}

// ProcessOnce publishes one batch of due messages.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	now := p.now()
	messages, err := p.repo.FetchDue(ctx, now, p.config.BatchSize)
	if err != nil {
		p.recordError(err)
		return err
	}
	p.recordLag(now, messages)

	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, msg.ID, p.now()); err != nil {
			p.logger.Error("mark outbox message published", "id", msg.ID, "error", err)
			continue
		}
		p.metrics.Counter(observability.MetricOutboxPublished, 1, observability.T("routing_key", msg.RoutingKey))
		p.statsMu.Lock()
		p.stats.PublishedCount++
		p.statsMu.Unlock()
	}
	return nil
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, cause error) {
	meta := decodeMetadata(msg)
	p.logger.Warn("publish outbox message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", meta.CorrelationID,
		"actor_id", meta.ActorID,
		"attempt", msg.RetryCount+1,
		"error", cause,
	)
	p.recordError(cause)

	if p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries {
		p.metrics.Counter(observability.MetricOutboxDeadLettered, 1, observability.T("routing_key", msg.RoutingKey))
		p.statsMu.Lock()
		p.stats.DeadCount++
		p.statsMu.Unlock()
		if err := p.repo.MarkDead(ctx, msg.ID, cause.Error(), p.now()); err != nil {
			p.logger.Error("mark outbox message dead", "id", msg.ID, "error", err)
		}
		return
	}

	p.metrics.Counter(observability.MetricOutboxFailed, 1, observability.T("routing_key", msg.RoutingKey))
	p.statsMu.Lock()
	p.stats.FailedCount++
	p.statsMu.Unlock()
	next := p.now().Add(p.Backoff(msg.RetryCount + 1))
	if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error(), next); err != nil {
		p.logger.Error("mark outbox message failed", "id", msg.ID, "error", err)
	}
}

// Backoff is base * 2^(attempt-1), capped at RetryBackoffMax.
func (p *Processor) Backoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	limit := p.config.RetryBackoffMax
	if limit <= 0 {
		limit = time.Minute
	}
	if attempt < 1 {
		attempt = 1
	}
	shift := convert.ShiftWidth(attempt - 1)
	if shift > 30 {
		return limit
	}
	backoff := base * time.Duration(int64(1)<<shift)
	if backoff > limit || backoff <= 0 {
		return limit
	}
	return backoff
}

// Cleanup deletes published messages older than the retention window.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	n, err := p.repo.DeletePublishedBefore(ctx, p.now().Add(-p.config.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("outbox cleanup", "deleted", n)
	}
	return n, nil
}

func decodeMetadata(msg *Message) domain.EventMetadata {
	var meta domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &meta)
	}
	return meta
}

// Stats is a snapshot of processor activity.
type Stats struct {
	Running         bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
}

// Stats returns current counters.
func (p *Processor) Stats() Stats {
	running := p.IsRunning()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.Running = running
	return s
}

func (p *Processor) recordError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	at := p.now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &at
}

func (p *Processor) recordLag(now time.Time, messages []*Message) {
	lag := 0.0
	for _, msg := range messages {
		if l := now.Sub(msg.CreatedAt).Seconds(); l > lag {
			lag = l
		}
	}
	p.metrics.Gauge(observability.MetricOutboxLagSeconds, lag)

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastProcessedAt = &now
	p.stats.LagSeconds = lag
}
