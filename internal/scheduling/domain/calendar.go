package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotIncrement is the grid step used when walking an availability window.
const SlotIncrement = 30 * time.Minute

// Frequency describes how a recurring series steps forward.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// IsValid returns true for known frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval creates an interval, rejecting empty or inverted ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: interval end %s is not after start %s",
			ErrInvalidArgument, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// IsZero reports an unset interval. Range filters treat it as unbounded.
func (i Interval) IsZero() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals share any instant. Touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Covers reports whether other lies entirely inside i.
func (i Interval) Covers(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// IsWithin reports whether instant falls inside the half-open interval.
func IsWithin(instant time.Time, interval Interval) bool {
	return !instant.Before(interval.Start) && instant.Before(interval.End)
}

// Weekday returns the day of week for date, 0 = Sunday through 6 = Saturday,
// evaluated in the date's own location.
func Weekday(date time.Time) int {
	return int(date.Weekday())
}

// AddInterval steps date forward by multiplier units of frequency.
// Month stepping clamps to the last day of the target month, so
// Jan 31 + 1 month is the last day of February.
func AddInterval(date time.Time, frequency Frequency, multiplier int) (time.Time, error) {
	if multiplier < 1 {
		return time.Time{}, fmt.Errorf("%w: interval multiplier must be at least 1, got %d", ErrInvalidArgument, multiplier)
	}

	switch frequency {
	case FrequencyDaily:
		return date.AddDate(0, 0, multiplier), nil
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7*multiplier), nil
	case FrequencyBiweekly:
		return date.AddDate(0, 0, 14*multiplier), nil
	case FrequencyMonthly:
		return addMonthsClamped(date, multiplier), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidArgument, frequency)
	}
}

func addMonthsClamped(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SlotGrid walks window in fixed increments starting at the window start and
// returns every candidate start strictly before the window end.
func SlotGrid(window Interval, step time.Duration) ([]time.Time, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: slot step must be positive, got %s", ErrInvalidArgument, step)
	}
	starts := make([]time.Time, 0, int(window.Duration()/step)+1)
	for t := window.Start; t.Before(window.End); t = t.Add(step) {
		starts = append(starts, t)
	}
	return starts, nil
}

// DurationFromMinutes converts a service duration, rejecting non-positive values.
func DurationFromMinutes(minutes int) (time.Duration, error) {
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d minutes", ErrInvalidArgument, minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// StartOfDay normalises t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Clock is a local wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return Clock{}, fmt.Errorf("%w: malformed time of day %q", ErrInvalidArgument, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: malformed time of day %q", ErrInvalidArgument, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: malformed time of day %q", ErrInvalidArgument, value)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// MustParseClock is ParseClock for static configuration; it panics on bad input.
func MustParseClock(value string) Clock {
	c, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return c
}

// On places the clock on the civil date of day, in loc.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is earlier in the day than other.
func (c Clock) Before(other Clock) bool {
	return c.Minutes() < other.Minutes()
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// LoadLocation resolves an IANA timezone name, falling back to fallback when empty.
func LoadLocation(name string, fallback *time.Location) (*time.Location, error) {
	if name == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidArgument, name)
	}
	return loc, nil
}
