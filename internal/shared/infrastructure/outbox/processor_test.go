package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func seed(t *testing.T, repo *MemoryRepository, createdAt time.Time, keys ...string) {
	t.Helper()
	msgs := make([]*Message, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, &Message{
			EventID:     uuid.New(),
			AggregateID: uuid.New(),
			RoutingKey:  k,
			Payload:     json.RawMessage(`{}`),
			Metadata:    json.RawMessage(`{"correlation_id":"00000000-0000-0000-0000-000000000000","actor_id":"tester"}`),
			CreatedAt:   createdAt,
		})
	}
	require.NoError(t, repo.SaveBatch(context.Background(), msgs))
}

func TestProcessor_PublishesDueMessages(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	seed(t, repo, now.Add(-10*time.Second), "scheduling.appointment.created", "scheduling.appointment.cancelled")

	pub := &recordingPublisher{}
	metrics := observability.NewInMemoryMetrics()
	p := NewProcessor(repo, pub, DefaultProcessorConfig(), nil,
		WithClock(func() time.Time { return now }), WithMetrics(metrics))

	require.NoError(t, p.ProcessOnce(context.Background()))

	assert.Equal(t, []string{"scheduling.appointment.created", "scheduling.appointment.cancelled"}, pub.keys)
	for _, m := range repo.All() {
		assert.True(t, m.IsPublished())
	}
	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.InDelta(t, 10, stats.LagSeconds, 0.001)
	assert.Equal(t, int64(1), metrics.CounterValue(observability.MetricOutboxPublished,
		observability.T("routing_key", "scheduling.appointment.created")))

	// nothing left to do
	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.Len(t, pub.keys, 2)
}

func TestProcessor_RetriesThenDeadLetters(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	seed(t, repo, now, "scheduling.appointment.created")

	cfg := DefaultProcessorConfig()
	cfg.MaxRetries = 2
	cfg.RetryBackoffBase = time.Second
	pub := &recordingPublisher{err: errors.New("broker down")}
	p := NewProcessor(repo, pub, cfg, nil, WithClock(func() time.Time { return now }))

	require.NoError(t, p.ProcessOnce(context.Background()))
	msg := repo.All()[0]
	assert.Equal(t, 1, msg.RetryCount)
	require.NotNil(t, msg.NextRetryAt)
	assert.Equal(t, now.Add(time.Second), *msg.NextRetryAt)
	assert.False(t, msg.IsDead())

	// not due yet
	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.Equal(t, 1, repo.All()[0].RetryCount)

	now = now.Add(2 * time.Second)
	require.NoError(t, p.ProcessOnce(context.Background()))
	msg = repo.All()[0]
	assert.True(t, msg.IsDead())
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, "broker down", *msg.DeadLetterReason)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, uint64(1), stats.DeadCount)
	assert.Equal(t, "broker down", stats.LastError)
}

func TestProcessor_Backoff(t *testing.T) {
	p := NewProcessor(NewMemoryRepository(), &recordingPublisher{}, ProcessorConfig{
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  10 * time.Second,
	}, nil)

	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 10*time.Second, p.Backoff(5))
	assert.Equal(t, 10*time.Second, p.Backoff(200))
}

func TestProcessor_Cleanup(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository()
	seed(t, repo, now, "a", "b")
	ctx := context.Background()
	require.NoError(t, repo.MarkPublished(ctx, 1, now.Add(-8*24*time.Hour)))
	require.NoError(t, repo.MarkPublished(ctx, 2, now.Add(-time.Hour)))

	p := NewProcessor(repo, &recordingPublisher{}, DefaultProcessorConfig(), nil,
		WithClock(func() time.Time { return now }))
	n, err := p.Cleanup(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, repo.All(), 1)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, time.Now(), "scheduling.appointment.created")
	pub := &recordingPublisher{}

	cfg := DefaultProcessorConfig()
	cfg.PollInterval = 5 * time.Millisecond
	p := NewProcessor(repo, pub, cfg, nil)
	p.Start(context.Background())
	p.Start(context.Background())
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool { return repo.All()[0].IsPublished() }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())
}

func TestMemoryRepository_MarkUnknown(t *testing.T) {
	err := NewMemoryRepository().MarkPublished(context.Background(), 42, time.Now())
	assert.ErrorIs(t, err, ErrMessageNotFound)
}
