package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/calendar/application"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	enabled bool
	pushed  []uuid.UUID
	results map[uuid.UUID]*application.PushResult
	errs    map[uuid.UUID]error
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{
		enabled: true,
		results: make(map[uuid.UUID]*application.PushResult),
		errs:    make(map[uuid.UUID]error),
	}
}

func (p *recordingPusher) PushEnabled() bool { return p.enabled }

func (p *recordingPusher) PushAppointment(_ context.Context, id uuid.UUID) (*application.PushResult, error) {
	p.pushed = append(p.pushed, id)
	if err := p.errs[id]; err != nil {
		return nil, err
	}
	if r, ok := p.results[id]; ok {
		return r, nil
	}
	return &application.PushResult{Updated: 1}, nil
}

func newAppointment(t *testing.T, start time.Time) *domain.Appointment {
	t.Helper()
	a, err := domain.NewAppointment(domain.NewAppointmentParams{
		ClientID: "client-1", ProviderID: "dr-lee", ServiceID: "individual-50",
		Start: start, End: start.Add(50 * time.Minute), ConfirmationCode: "K7QX2M9PLA",
	})
	require.NoError(t, err)
	return a
}

func payloadOf(t *testing.T, event any) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestAppointmentSyncSubscriber_PushesFromPublishedEvent(t *testing.T) {
	pusher := newRecordingPusher()
	sub := NewAppointmentSyncSubscriber(pusher, nil)
	bus := eventbus.NewInProcessPublisher(nil)
	bus.Subscribe(RoutingPattern, sub.Handle)

	appt := newAppointment(t, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	created := domain.NewAppointmentCreated(appt)

	err := bus.Publish(context.Background(), created.RoutingKey(), payloadOf(t, created))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{appt.ID()}, pusher.pushed)
}

func TestAppointmentSyncSubscriber_RescheduleSyncsBoth(t *testing.T) {
	pusher := newRecordingPusher()
	sub := NewAppointmentSyncSubscriber(pusher, nil)

	old := newAppointment(t, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	replacement := newAppointment(t, time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC))
	event := domain.NewAppointmentRescheduled(old, replacement)

	require.NoError(t, sub.Handle(context.Background(), event.RoutingKey(), payloadOf(t, event)))
	assert.Equal(t, []uuid.UUID{old.ID(), replacement.ID()}, pusher.pushed)
}

func TestAppointmentSyncSubscriber_Skips(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		pusher := newRecordingPusher()
		sub := NewAppointmentSyncSubscriber(pusher, nil)
		sub.SetEnabled(false)
		require.NoError(t, sub.Handle(ctx, domain.RoutingKeyAppointmentCreated, []byte(`{"appointment_id":"`+uuid.NewString()+`"}`)))
		assert.Empty(t, pusher.pushed)
	})

	t.Run("push not configured", func(t *testing.T) {
		pusher := newRecordingPusher()
		pusher.enabled = false
		sub := NewAppointmentSyncSubscriber(pusher, nil)
		require.NoError(t, sub.Handle(ctx, domain.RoutingKeyAppointmentCreated, []byte(`{"appointment_id":"`+uuid.NewString()+`"}`)))
		assert.Empty(t, pusher.pushed)
	})

	t.Run("garbage payload is acknowledged", func(t *testing.T) {
		pusher := newRecordingPusher()
		sub := NewAppointmentSyncSubscriber(pusher, nil)
		assert.NoError(t, sub.Handle(ctx, domain.RoutingKeyAppointmentCreated, []byte("{not json")))
		assert.NoError(t, sub.Handle(ctx, domain.RoutingKeyAppointmentCreated, []byte(`{}`)))
		assert.Empty(t, pusher.pushed)
	})

	t.Run("vanished appointment is acknowledged", func(t *testing.T) {
		pusher := newRecordingPusher()
		id := uuid.New()
		pusher.errs[id] = domain.ErrNotFound
		sub := NewAppointmentSyncSubscriber(pusher, nil)
		assert.NoError(t, sub.Handle(ctx, domain.RoutingKeyAppointmentCancelled, []byte(`{"appointment_id":"`+id.String()+`"}`)))
	})
}

func TestAppointmentSyncSubscriber_FailuresAreRetried(t *testing.T) {
	ctx := context.Background()
	pusher := newRecordingPusher()
	sub := NewAppointmentSyncSubscriber(pusher, nil)

	down := uuid.New()
	pusher.errs[down] = errors.New("connection refused")
	assert.Error(t, sub.Handle(ctx, domain.RoutingKeyAppointmentConfirmed, []byte(`{"appointment_id":"`+down.String()+`"}`)))

	partial := uuid.New()
	pusher.results[partial] = &application.PushResult{Failed: 1}
	assert.Error(t, sub.Handle(ctx, domain.RoutingKeyAppointmentConfirmed, []byte(`{"appointment_id":"`+partial.String()+`"}`)))
}
