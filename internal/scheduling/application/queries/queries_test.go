package queries

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/catalog"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(d, h, min int) time.Time {
	return time.Date(2025, time.January, d, h, min, 0, 0, time.UTC)
}

type fixture struct {
	catalog      *catalog.Catalog
	appointments *persistence.MemoryAppointmentRepository
	blocks       *persistence.MemoryBlockedIntervalRepository
	resolver     *services.AvailabilityResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.New(
		[]domain.Service{
			{ID: "individual-50", Name: "Individual therapy", DurationMinutes: 50, Active: true},
			{ID: "couples-80", Name: "Couples therapy", DurationMinutes: 80, Active: true},
			{ID: "retired", Name: "Retired", DurationMinutes: 50},
		},
		[]domain.AvailabilityRule{{
			ID: "mon", ProviderID: "dr-lee", DayOfWeek: 1,
			Start: domain.MustParseClock("09:00"), End: domain.MustParseClock("12:00"), Active: true,
		}},
	)
	require.NoError(t, err)
	f := &fixture{
		catalog:      cat,
		appointments: persistence.NewMemoryAppointmentRepository(),
		blocks:       persistence.NewMemoryBlockedIntervalRepository(),
	}
	now := func() time.Time { return at(1, 0, 0) }
	f.resolver = services.NewAvailabilityResolver(cat, f.appointments, f.blocks, time.UTC, now, nil, nil)
	return f
}

func (f *fixture) insert(t *testing.T, p domain.NewAppointmentParams) *domain.Appointment {
	t.Helper()
	if p.ProviderID == "" {
		p.ProviderID = "dr-lee"
	}
	if p.ClientID == "" {
		p.ClientID = "client-1"
	}
	if p.End.IsZero() {
		p.End = p.Start.Add(50 * time.Minute)
	}
	code, err := services.NewConfirmationCode()
	require.NoError(t, err)
	p.ConfirmationCode = code
	appt, err := domain.NewAppointment(p)
	require.NoError(t, err)
	require.NoError(t, f.appointments.InsertIfAvailable(context.Background(), appt))
	return appt
}

func TestResolveSlotsHandler(t *testing.T) {
	f := newFixture(t)
	f.insert(t, domain.NewAppointmentParams{ServiceID: "individual-50", Start: at(6, 10, 0)})
	handler := NewResolveSlotsHandler(f.resolver, f.catalog, "dr-lee")
	ctx := context.Background()

	t.Run("service duration and default provider", func(t *testing.T) {
		slots, err := handler.Handle(ctx, ResolveSlotsQuery{ServiceID: "individual-50", Date: at(6, 0, 0)})
		require.NoError(t, err)
		require.Len(t, slots, 5)
		assert.Equal(t, "dr-lee", slots[0].ProviderID)
		assert.Equal(t, at(6, 9, 50), slots[0].End)
	})

	t.Run("only available", func(t *testing.T) {
		slots, err := handler.Handle(ctx, ResolveSlotsQuery{ServiceID: "individual-50", Date: at(6, 0, 0), OnlyAvailable: true})
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, at(6, 9, 0), slots[0].Start)
		assert.Equal(t, at(6, 11, 0), slots[1].Start)
	})

	t.Run("explicit duration", func(t *testing.T) {
		slots, err := handler.Handle(ctx, ResolveSlotsQuery{ProviderID: "dr-lee", DurationMinutes: 80, Date: at(6, 0, 0)})
		require.NoError(t, err)
		require.Len(t, slots, 4)
		assert.Equal(t, at(6, 10, 30), slots[3].Start)
	})

	t.Run("inactive service", func(t *testing.T) {
		_, err := handler.Handle(ctx, ResolveSlotsQuery{ServiceID: "retired", Date: at(6, 0, 0)})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing duration", func(t *testing.T) {
		_, err := handler.Handle(ctx, ResolveSlotsQuery{Date: at(6, 0, 0)})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestGetAppointmentHandler(t *testing.T) {
	f := newFixture(t)
	appt := f.insert(t, domain.NewAppointmentParams{ServiceID: "individual-50", Start: at(6, 9, 0), Notes: "intake notes"})
	handler := NewGetAppointmentHandler(f.appointments)
	ctx := context.Background()

	byID, err := handler.Handle(ctx, GetAppointmentQuery{Reference: appt.ID().String()})
	require.NoError(t, err)
	assert.Equal(t, appt.ID(), byID.ID)
	assert.Equal(t, "scheduled", byID.Status)
	assert.Equal(t, "intake notes", byID.Notes)
	assert.Nil(t, byID.RecurringGroupID)
	assert.Nil(t, byID.RescheduledTo)

	byCode, err := handler.Handle(ctx, GetAppointmentQuery{Reference: " " + strings.ToLower(appt.ConfirmationCode()) + " "})
	require.NoError(t, err)
	assert.Equal(t, appt.ID(), byCode.ID)

	_, err = handler.Handle(ctx, GetAppointmentQuery{Reference: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = handler.Handle(ctx, GetAppointmentQuery{Reference: "NOPE234567"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = handler.Handle(ctx, GetAppointmentQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestProjectEventsHandler(t *testing.T) {
	f := newFixture(t)
	group := uuid.New()
	weekly := &domain.RecurringPattern{Frequency: domain.FrequencyWeekly, Interval: 1}
	first := f.insert(t, domain.NewAppointmentParams{ServiceID: "individual-50", Start: at(6, 9, 0), RecurringGroupID: group, Pattern: weekly})
	second := f.insert(t, domain.NewAppointmentParams{ServiceID: "unlisted", ClientID: "client-2", Start: at(6, 11, 0), Status: domain.StatusPending})
	f.insert(t, domain.NewAppointmentParams{ServiceID: "individual-50", Start: at(13, 9, 0)})
	f.insert(t, domain.NewAppointmentParams{ServiceID: "individual-50", ProviderID: "dr-kim", Start: at(6, 9, 0)})

	handler := NewProjectEventsHandler(f.appointments, f.catalog)
	ctx := context.Background()

	events, err := handler.Handle(ctx, ProjectEventsQuery{
		ProviderID: "dr-lee",
		Range:      domain.Interval{Start: at(6, 0, 0), End: at(7, 0, 0)},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, first.ID(), events[0].ID)
	assert.Equal(t, "Individual therapy", events[0].Title)
	assert.Equal(t, "scheduled", events[0].Resource.Status)
	assert.Equal(t, StatusColor(domain.StatusScheduled), events[0].Resource.Color)
	assert.Equal(t, first.ConfirmationCode(), events[0].Resource.ConfirmationCode)
	require.NotNil(t, events[0].Resource.RecurringGroupID)
	assert.Equal(t, group, *events[0].Resource.RecurringGroupID)
	assert.Equal(t, weekly, events[0].Resource.Recurrence)

	assert.Equal(t, second.ID(), events[1].ID)
	assert.Equal(t, DefaultEventTitle, events[1].Title)
	assert.Equal(t, StatusColor(domain.StatusPending), events[1].Resource.Color)
	assert.Nil(t, events[1].Resource.RecurringGroupID)

	t.Run("client filter across providers", func(t *testing.T) {
		events, err := handler.Handle(ctx, ProjectEventsQuery{ClientID: "client-1"})
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("single appointment", func(t *testing.T) {
		event, err := handler.HandleOne(ctx, second.ID())
		require.NoError(t, err)
		assert.Equal(t, DefaultEventTitle, event.Title)
		assert.Equal(t, "client-2", event.Resource.ClientID)

		_, err = handler.HandleOne(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty range", func(t *testing.T) {
		events, err := handler.Handle(ctx, ProjectEventsQuery{
			ProviderID: "dr-lee",
			Range:      domain.Interval{Start: at(20, 0, 0), End: at(21, 0, 0)},
		})
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.NotNil(t, events)
	})
}

func TestStatusColor_Distinct(t *testing.T) {
	seen := make(map[string]domain.AppointmentStatus)
	for status, color := range statusColors {
		other, dup := seen[color]
		assert.False(t, dup, "%s and %s share %s", status, other, color)
		seen[color] = status
	}
}
