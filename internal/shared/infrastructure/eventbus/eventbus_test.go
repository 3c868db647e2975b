package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct {
	calls int
	err   error
}

func (f *failingPublisher) Publish(context.Context, string, []byte) error {
	f.calls++
	return f.err
}

func (f *failingPublisher) Close() error { return nil }

func TestInProcessPublisher_DispatchesByPattern(t *testing.T) {
	bus := NewInProcessPublisher(nil)
	var appointmentKeys, allKeys []string
	bus.Subscribe("scheduling.appointment.*", func(_ context.Context, key string, _ []byte) error {
		appointmentKeys = append(appointmentKeys, key)
		return nil
	})
	bus.Subscribe("*", func(_ context.Context, key string, _ []byte) error {
		allKeys = append(allKeys, key)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), "scheduling.appointment.created", []byte(`{}`)))
	require.NoError(t, bus.Publish(context.Background(), "scheduling.block.created", []byte(`{}`)))

	assert.Equal(t, []string{"scheduling.appointment.created"}, appointmentKeys)
	assert.Len(t, allKeys, 2)
}

func TestInProcessPublisher_ReturnsHandlerError(t *testing.T) {
	bus := NewInProcessPublisher(nil)
	boom := errors.New("smtp down")
	bus.Subscribe("scheduling.*.*", func(context.Context, string, []byte) error { return boom })

	err := bus.Publish(context.Background(), "scheduling.appointment.cancelled", nil)
	assert.ErrorIs(t, err, boom)
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingPublisher{err: errors.New("connection refused")}
	pub := NewBreakerPublisher(next, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

	ctx := context.Background()
	assert.Error(t, pub.Publish(ctx, "k", nil))
	assert.Error(t, pub.Publish(ctx, "k", nil))
	assert.Equal(t, gobreaker.StateOpen, pub.State())

	err := pub.Publish(ctx, "k", nil)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerPublisher_PassesThroughSuccess(t *testing.T) {
	next := &failingPublisher{}
	pub := NewBreakerPublisher(next, DefaultBreakerConfig(), nil)

	require.NoError(t, pub.Publish(context.Background(), "k", []byte("x")))
	assert.Equal(t, gobreaker.StateClosed, pub.State())
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), "k", nil))
	assert.NoError(t, p.Close())
}
