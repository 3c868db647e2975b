package services

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/catalog"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/lock"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const provider = "dr-lee"

type fixture struct {
	appointments *persistence.MemoryAppointmentRepository
	blocks       *persistence.MemoryBlockedIntervalRepository
	outbox       *outbox.MemoryRepository
	metrics      *observability.InMemoryMetrics
	resolver     *AvailabilityResolver
	expander     *RecurrenceExpander
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func newFixture(t *testing.T, now time.Time, rules ...domain.AvailabilityRule) *fixture {
	t.Helper()
	if len(rules) == 0 {
		rules = []domain.AvailabilityRule{mondayMorning()}
	}
	cat, err := catalog.New(nil, rules)
	require.NoError(t, err)

	f := &fixture{
		appointments: persistence.NewMemoryAppointmentRepository(),
		blocks:       persistence.NewMemoryBlockedIntervalRepository(),
		outbox:       outbox.NewMemoryRepository(),
		metrics:      observability.NewInMemoryMetrics(),
	}
	clock := func() time.Time { return now }
	f.resolver = NewAvailabilityResolver(cat, f.appointments, f.blocks, time.UTC, clock, f.metrics, nil)
	f.expander = NewRecurrenceExpander(f.resolver, f.appointments, f.blocks, f.outbox, sharedApplication.NoopUnitOfWork{},
		lock.NewKeyedMutex(), NewConfirmationCode, time.UTC, f.metrics, nil)
	return f
}

func mondayMorning() domain.AvailabilityRule {
	return domain.AvailabilityRule{
		ID:         "mon-am",
		ProviderID: provider,
		DayOfWeek:  1,
		Start:      domain.MustParseClock("09:00"),
		End:        domain.MustParseClock("12:00"),
		Active:     true,
	}
}

func (f *fixture) book(t *testing.T, start time.Time, minutes int) *domain.Appointment {
	t.Helper()
	code, err := NewConfirmationCode()
	require.NoError(t, err)
	appt, err := domain.NewAppointment(domain.NewAppointmentParams{
		ClientID:         "client-1",
		ProviderID:       provider,
		ServiceID:        "individual-50",
		Start:            start,
		End:              start.Add(time.Duration(minutes) * time.Minute),
		ConfirmationCode: code,
	})
	require.NoError(t, err)
	require.NoError(t, f.appointments.InsertIfAvailable(context.Background(), appt))
	appt.ClearDomainEvents()
	return appt
}

func starts(slots []domain.TimeSlot, onlyAvailable bool) []string {
	var out []string
	for _, s := range slots {
		if !onlyAvailable || s.Available {
			out = append(out, s.Start.Format("15:04"))
		}
	}
	return out
}

func TestResolveSlots_MondayScenario(t *testing.T) {
	monday := at(2025, time.January, 6, 0, 0)
	f := newFixture(t, at(2025, time.January, 1, 0, 0))
	ctx := context.Background()
	req := ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50}

	slots, err := f.resolver.ResolveSlots(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, starts(slots, false))
	assert.Equal(t, starts(slots, false), starts(slots, true))

	f.book(t, at(2025, time.January, 6, 10, 0), 50)

	slots, err = f.resolver.ResolveSlots(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, starts(slots, false))
	// 09:30 and 10:30 would both overlap the 10:00-10:50 booking.
	assert.Equal(t, []string{"09:00", "11:00"}, starts(slots, true))
}

func TestResolveSlots_EdgeCases(t *testing.T) {
	ctx := context.Background()
	monday := at(2025, time.January, 6, 0, 0)

	t.Run("no rules for the day", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 1, 0, 0))
		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{
			ProviderID: provider, Date: monday.AddDate(0, 0, 1), DurationMinutes: 50,
		})
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 1, 0, 0))
		_, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: -5})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{Date: monday, DurationMinutes: 50})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50, Timezone: "Nowhere/City"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("past slots are unavailable", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 6, 10, 15))
		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"10:30", "11:00"}, starts(slots, true))
	})

	t.Run("blocked interval for provider and global", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 1, 0, 0))
		scoped, err := domain.NewBlockedInterval(provider, at(2025, time.January, 6, 9, 0), at(2025, time.January, 6, 9, 30), "supervision", nil, "")
		require.NoError(t, err)
		global, err := domain.NewBlockedInterval("", at(2025, time.January, 6, 11, 45), at(2025, time.January, 6, 13, 0), "staff meeting", nil, "")
		require.NoError(t, err)
		other, err := domain.NewBlockedInterval("dr-kim", at(2025, time.January, 6, 10, 0), at(2025, time.January, 6, 11, 0), "", nil, "")
		require.NoError(t, err)
		for _, b := range []*domain.BlockedInterval{scoped, global, other} {
			require.NoError(t, f.blocks.Save(ctx, b))
		}

		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"09:30", "10:00", "10:30"}, starts(slots, true))
	})

	t.Run("recurring blocked interval", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 1, 0, 0))
		weekly := &domain.RecurringPattern{Frequency: domain.FrequencyWeekly, Interval: 1}
		b, err := domain.NewBlockedInterval(provider, at(2024, time.December, 30, 10, 0), at(2024, time.December, 30, 11, 0), "team huddle", weekly, "UTC")
		require.NoError(t, err)
		require.NoError(t, f.blocks.Save(ctx, b))

		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "11:00"}, starts(slots, true))
	})

	t.Run("excluded appointment does not conflict", func(t *testing.T) {
		f := newFixture(t, at(2025, time.January, 1, 0, 0))
		appt := f.book(t, at(2025, time.January, 6, 10, 0), 50)

		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{
			ProviderID: provider, Date: monday, DurationMinutes: 50, ExcludeAppointmentIDs: []uuid.UUID{appt.ID()},
		})
		require.NoError(t, err)
		assert.Len(t, starts(slots, true), 5)
	})

	t.Run("overlapping rules offer each start once", func(t *testing.T) {
		extra := mondayMorning()
		extra.ID = "mon-late"
		extra.Start = domain.MustParseClock("10:00")
		extra.End = domain.MustParseClock("13:00")
		f := newFixture(t, at(2025, time.January, 1, 0, 0), mondayMorning(), extra)

		slots, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{ProviderID: provider, Date: monday, DurationMinutes: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00"}, starts(slots, false))
	})
}

func TestResolveSlots_Timezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := newFixture(t, at(2025, time.January, 1, 0, 0))

	// 2025-03-10 is the Monday after the spring-forward transition.
	slots, err := f.resolver.ResolveSlots(context.Background(), ResolveSlotsRequest{
		ProviderID: provider, Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, ny), DurationMinutes: 50, Timezone: "America/New_York",
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC), slots[0].Start.UTC())
	assert.Equal(t, "09:00", slots[0].Start.Format("15:04"))
}

func TestAlternatives(t *testing.T) {
	base := at(2025, time.January, 6, 9, 0)
	var slots []domain.TimeSlot
	for i := 0; i < 6; i++ {
		s := base.Add(time.Duration(i) * 30 * time.Minute)
		slots = append(slots, domain.TimeSlot{Start: s, End: s.Add(50 * time.Minute), Available: i != 2})
	}

	alts := Alternatives(slots, at(2025, time.January, 6, 10, 0), 3)
	assert.Equal(t, []string{"09:00", "09:30", "10:30"}, starts(alts, true))
	assert.Empty(t, Alternatives(nil, base, 3))
}

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewConfirmationCode()
		require.NoError(t, err)
		assert.Len(t, code, ConfirmationCodeLength)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		seen[code] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, "solace:booking:provider:dr-lee", ProviderLockKey(provider))
}
