package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUnitOfWork struct {
	commits   int
	rollbacks int
}

func (u *recordingUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (u *recordingUnitOfWork) Commit(context.Context) error {
	u.commits++
	return nil
}
func (u *recordingUnitOfWork) Rollback(context.Context) error {
	u.rollbacks++
	return nil
}

func weeklyTimes(n int) domain.RecurringPattern {
	return domain.RecurringPattern{Frequency: domain.FrequencyWeekly, Interval: 1, Occurrences: &n}
}

func TestRecurrenceExpander_Plan(t *testing.T) {
	f := newFixture(t, at(2023, time.December, 1, 0, 0))
	start := at(2024, time.January, 1, 10, 0)

	first, err := f.expander.Plan(start, weeklyTimes(4), nil)
	require.NoError(t, err)
	second, err := f.expander.Plan(start, weeklyTimes(4), nil)
	require.NoError(t, err)

	want := []time.Time{
		at(2024, time.January, 1, 10, 0),
		at(2024, time.January, 8, 10, 0),
		at(2024, time.January, 15, 10, 0),
		at(2024, time.January, 22, 10, 0),
	}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)

	_, err = f.expander.Plan(start, domain.RecurringPattern{Frequency: "yearly"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRecurrenceExpander_Expand(t *testing.T) {
	ctx := context.Background()

	t.Run("books every sibling", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		base := f.book(t, at(2024, time.January, 1, 10, 0), 50)

		report, err := f.expander.Expand(ctx, base, weeklyTimes(4), ExpandOptions{})
		require.NoError(t, err)
		require.NoError(t, report.Err())

		assert.NotEqual(t, uuid.Nil, report.GroupID)
		assert.Len(t, report.Dates, 4)
		require.Len(t, report.Created, 3)
		assert.Len(t, report.Notifications, 3)
		for _, a := range report.Created {
			assert.Equal(t, report.GroupID, a.RecurringGroupID())
			assert.Equal(t, 50*time.Minute, a.EndTime().Sub(a.StartTime()))
			assert.Equal(t, base.ClientID(), a.ClientID())
			assert.Empty(t, a.DomainEvents())
		}

		stored, err := f.appointments.FindByID(ctx, base.ID())
		require.NoError(t, err)
		assert.Equal(t, report.GroupID, stored.RecurringGroupID())
		assert.Len(t, f.outbox.All(), 3)
	})

	t.Run("reports conflicting instances individually", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		base := f.book(t, at(2024, time.January, 1, 10, 0), 50)
		f.book(t, at(2024, time.January, 15, 10, 30), 50)
		holiday, err := domain.NewBlockedInterval("", at(2024, time.January, 22, 0, 0), at(2024, time.January, 23, 0, 0), "closed", nil, "")
		require.NoError(t, err)
		require.NoError(t, f.blocks.Save(ctx, holiday))

		report, err := f.expander.Expand(ctx, base, weeklyTimes(4), ExpandOptions{})
		require.NoError(t, err)

		require.Len(t, report.Created, 1)
		assert.Equal(t, at(2024, time.January, 8, 10, 0), report.Created[0].StartTime())
		require.Len(t, report.Failed, 2)
		assert.Equal(t, at(2024, time.January, 15, 10, 0), report.Failed[0].Start)
		assert.Contains(t, report.Failed[0].Reason, "existing appointment")
		assert.Equal(t, "blocked time", report.Failed[1].Reason)

		var partial *domain.PartialRecurrenceError
		require.ErrorAs(t, report.Err(), &partial)
		assert.True(t, errors.Is(report.Err(), domain.ErrPartialRecurrence))
		assert.Len(t, partial.Failed, 2)
	})

	t.Run("pending base yields pending siblings", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		base, err := domain.NewAppointment(domain.NewAppointmentParams{
			ClientID: "client-2", ProviderID: provider, ServiceID: "intake",
			Start: at(2024, time.January, 1, 9, 0), End: at(2024, time.January, 1, 9, 30),
			Status: domain.StatusPending, ConfirmationCode: "PENDING234",
		})
		require.NoError(t, err)
		require.NoError(t, f.appointments.InsertIfAvailable(ctx, base))

		report, err := f.expander.Expand(ctx, base, weeklyTimes(2), ExpandOptions{})
		require.NoError(t, err)
		require.Len(t, report.Created, 1)
		assert.Equal(t, domain.StatusPending, report.Created[0].Status())
	})

	t.Run("siblings outside the rules are rejected", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		base := f.book(t, at(2024, time.January, 1, 9, 0), 50)
		three := 3
		daily := domain.RecurringPattern{Frequency: domain.FrequencyDaily, Interval: 1, Occurrences: &three}

		report, err := f.expander.Expand(ctx, base, daily, ExpandOptions{})
		require.NoError(t, err)

		assert.Empty(t, report.Created)
		require.Len(t, report.Failed, 2)
		assert.Equal(t, at(2024, time.January, 2, 9, 0), report.Failed[0].Start)
		assert.Equal(t, "outside availability", report.Failed[0].Reason)
		assert.Equal(t, "outside availability", report.Failed[1].Reason)
		assert.Empty(t, f.outbox.All())

		tuesday, err := f.resolver.ResolveSlots(ctx, ResolveSlotsRequest{
			ProviderID: provider, Date: at(2024, time.January, 2, 0, 0), DurationMinutes: 50,
		})
		require.NoError(t, err)
		assert.Empty(t, tuesday)
	})

	t.Run("sibling past the end of the window is rejected", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		// Inserted directly: 11:30 + 50 minutes runs past the 12:00 rule end.
		base := f.book(t, at(2024, time.January, 1, 11, 30), 50)

		report, err := f.expander.Expand(ctx, base, weeklyTimes(2), ExpandOptions{})
		require.NoError(t, err)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "outside availability", report.Failed[0].Reason)
	})

	t.Run("conflicting sibling rolls back its unit of work", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		uow := &recordingUnitOfWork{}
		expander := NewRecurrenceExpander(f.resolver, f.appointments, f.blocks, f.outbox, uow,
			lock.NewKeyedMutex(), NewConfirmationCode, time.UTC, f.metrics, nil)
		base := f.book(t, at(2024, time.January, 1, 10, 0), 50)
		f.book(t, at(2024, time.January, 8, 10, 30), 50)

		report, err := expander.Expand(ctx, base, weeklyTimes(3), ExpandOptions{})
		require.NoError(t, err)

		require.Len(t, report.Failed, 1)
		assert.Equal(t, at(2024, time.January, 8, 10, 0), report.Failed[0].Start)
		assert.Equal(t, "conflicts with an existing appointment", report.Failed[0].Reason)
		require.Len(t, report.Created, 1)
		assert.Equal(t, 1, uow.commits)
		assert.Equal(t, 1, uow.rollbacks)
	})

	t.Run("cancelled context stops expansion", func(t *testing.T) {
		f := newFixture(t, at(2023, time.December, 1, 0, 0))
		base := f.book(t, at(2024, time.January, 1, 10, 0), 50)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.expander.ExpandLocked(cctx, base, weeklyTimes(3), ExpandOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
