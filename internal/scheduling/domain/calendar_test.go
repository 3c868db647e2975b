package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestIsWithin(t *testing.T) {
	window := domain.Interval{Start: date(2024, 1, 1, 9, 0), End: date(2024, 1, 1, 10, 0)}

	assert.True(t, domain.IsWithin(window.Start, window))
	assert.True(t, domain.IsWithin(date(2024, 1, 1, 9, 59), window))
	assert.False(t, domain.IsWithin(window.End, window))
	assert.False(t, domain.IsWithin(date(2024, 1, 1, 8, 59), window))
}

func TestInterval_Overlaps(t *testing.T) {
	a := domain.Interval{Start: date(2024, 1, 1, 9, 0), End: date(2024, 1, 1, 10, 0)}

	t.Run("touching intervals do not overlap", func(t *testing.T) {
		b := domain.Interval{Start: a.End, End: a.End.Add(time.Hour)}
		assert.False(t, a.Overlaps(b))
		assert.False(t, b.Overlaps(a))
	})

	t.Run("partial overlap", func(t *testing.T) {
		b := domain.Interval{Start: date(2024, 1, 1, 9, 30), End: date(2024, 1, 1, 10, 30)}
		assert.True(t, a.Overlaps(b))
	})

	t.Run("containment", func(t *testing.T) {
		b := domain.Interval{Start: date(2024, 1, 1, 9, 15), End: date(2024, 1, 1, 9, 45)}
		assert.True(t, a.Overlaps(b))
		assert.True(t, a.Covers(b))
		assert.False(t, b.Covers(a))
	})
}

func TestNewInterval_RejectsInverted(t *testing.T) {
	_, err := domain.NewInterval(date(2024, 1, 1, 10, 0), date(2024, 1, 1, 10, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 1, domain.Weekday(date(2024, 1, 1, 0, 0))) // Monday
	assert.Equal(t, 0, domain.Weekday(date(2024, 1, 7, 0, 0)))
	assert.Equal(t, 6, domain.Weekday(date(2024, 1, 6, 0, 0)))
}

func TestAddInterval(t *testing.T) {
	base := date(2024, 1, 1, 10, 0)

	tests := []struct {
		name      string
		from      time.Time
		frequency domain.Frequency
		n         int
		want      time.Time
	}{
		{"daily", base, domain.FrequencyDaily, 3, date(2024, 1, 4, 10, 0)},
		{"weekly", base, domain.FrequencyWeekly, 1, date(2024, 1, 8, 10, 0)},
		{"biweekly", base, domain.FrequencyBiweekly, 1, date(2024, 1, 15, 10, 0)},
		{"biweekly with multiplier", base, domain.FrequencyBiweekly, 2, date(2024, 1, 29, 10, 0)},
		{"monthly", base, domain.FrequencyMonthly, 1, date(2024, 2, 1, 10, 0)},
		{"monthly clamps leap february", date(2024, 1, 31, 10, 0), domain.FrequencyMonthly, 1, date(2024, 2, 29, 10, 0)},
		{"monthly clamps february", date(2023, 1, 31, 10, 0), domain.FrequencyMonthly, 1, date(2023, 2, 28, 10, 0)},
		{"monthly clamps thirty day month", date(2024, 3, 31, 10, 0), domain.FrequencyMonthly, 1, date(2024, 4, 30, 10, 0)},
		{"monthly crosses year", date(2024, 11, 30, 10, 0), domain.FrequencyMonthly, 3, date(2025, 2, 28, 10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.AddInterval(tt.from, tt.frequency, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects zero multiplier", func(t *testing.T) {
		_, err := domain.AddInterval(base, domain.FrequencyDaily, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("rejects unknown frequency", func(t *testing.T) {
		_, err := domain.AddInterval(base, domain.Frequency("hourly"), 1)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestAddInterval_PreservesWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	before := time.Date(2024, 3, 4, 10, 0, 0, 0, loc) // EST
	after, err := domain.AddInterval(before, domain.FrequencyWeekly, 1)
	require.NoError(t, err)

	assert.Equal(t, 10, after.Hour())
	assert.Equal(t, 7*24*time.Hour-time.Hour, after.Sub(before))
}

func TestSlotGrid(t *testing.T) {
	window := domain.Interval{Start: date(2024, 1, 1, 9, 0), End: date(2024, 1, 1, 11, 0)}

	starts, err := domain.SlotGrid(window, domain.SlotIncrement)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2024, 1, 1, 9, 0),
		date(2024, 1, 1, 9, 30),
		date(2024, 1, 1, 10, 0),
		date(2024, 1, 1, 10, 30),
	}, starts)

	_, err = domain.SlotGrid(window, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDurationFromMinutes(t *testing.T) {
	d, err := domain.DurationFromMinutes(50)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, d)

	_, err = domain.DurationFromMinutes(-5)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestParseClock(t *testing.T) {
	c, err := domain.ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, domain.Clock{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())
	assert.Equal(t, 570, c.Minutes())

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:5", "12:30:00"} {
		t.Run(bad, func(t *testing.T) {
			_, err := domain.ParseClock(bad)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestClock_On(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got := domain.MustParseClock("09:00").On(date(2024, 7, 1, 23, 0), loc)

	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, loc), got)
	assert.Equal(t, date(2024, 7, 1, 7, 0), got.UTC())
}

func TestLoadLocation(t *testing.T) {
	loc, err := domain.LoadLocation("", nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = domain.LoadLocation("Mars/Olympus", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
