package domain

import (
	"fmt"
	"sort"
	"time"
)

// MaxRecurrenceOccurrences caps every series, including the base instance.
const MaxRecurrenceOccurrences = 52

// RecurringPattern describes how a booking or blocked interval repeats.
type RecurringPattern struct {
	Frequency   Frequency  `json:"frequency" yaml:"frequency"`
	Interval    int        `json:"interval" yaml:"interval"`
	Weekdays    []int      `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Occurrences *int       `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`
}

// Multiplier returns the interval, treating zero as one.
func (p RecurringPattern) Multiplier() int {
	if p.Interval == 0 {
		return 1
	}
	return p.Interval
}

// Validate checks the pattern is expandable.
func (p RecurringPattern) Validate() error {
	if !p.Frequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidArgument, p.Frequency)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval multiplier must be at least 1, got %d", ErrInvalidArgument, p.Interval)
	}
	for _, wd := range p.Weekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidArgument, wd)
		}
	}
	if p.Occurrences != nil && *p.Occurrences < 1 {
		return fmt.Errorf("%w: occurrence count must be at least 1, got %d", ErrInvalidArgument, *p.Occurrences)
	}
	return nil
}

// Dates returns the ordered instance starts of the series beginning at start,
// with start itself first. Wall-clock time of day is preserved in start's
// location. Expansion stops at whichever of the end date (inclusive, as a
// civil date), the occurrence count, or MaxRecurrenceOccurrences comes first.
// Weekdays only apply to weekly and biweekly patterns.
func (p RecurringPattern) Dates(start time.Time) ([]time.Time, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	limit := MaxRecurrenceOccurrences
	if p.Occurrences != nil && *p.Occurrences < limit {
		limit = *p.Occurrences
	}

	var until time.Time
	if p.EndDate != nil {
		y, m, d := p.EndDate.Date()
		until = time.Date(y, m, d, 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	}
	withinEnd := func(t time.Time) bool {
		return until.IsZero() || t.Before(until)
	}

	dates := []time.Time{start}
	if len(p.Weekdays) > 0 && (p.Frequency == FrequencyWeekly || p.Frequency == FrequencyBiweekly) {
		return p.weekdayDates(start, dates, limit, withinEnd), nil
	}

	// Each instance is derived from start so month clamping never drifts.
	for n := 1; len(dates) < limit; n++ {
		next, err := AddInterval(start, p.Frequency, p.Multiplier()*n)
		if err != nil {
			return nil, err
		}
		if !withinEnd(next) {
			break
		}
		dates = append(dates, next)
	}
	return dates, nil
}

func (p RecurringPattern) weekdayDates(start time.Time, dates []time.Time, limit int, withinEnd func(time.Time) bool) []time.Time {
	weekdays := uniqueSortedWeekdays(p.Weekdays)
	stepDays := 7 * p.Multiplier()
	if p.Frequency == FrequencyBiweekly {
		stepDays = 14 * p.Multiplier()
	}
	weekStart := start.AddDate(0, 0, -Weekday(start))

	for period := 0; len(dates) < limit; period++ {
		base := weekStart.AddDate(0, 0, stepDays*period)
		for _, wd := range weekdays {
			candidate := base.AddDate(0, 0, wd)
			if !candidate.After(start) {
				continue
			}
			if !withinEnd(candidate) {
				return dates
			}
			dates = append(dates, candidate)
			if len(dates) == limit {
				return dates
			}
		}
	}
	return dates
}

func uniqueSortedWeekdays(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, wd := range in {
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	sort.Ints(out)
	return out
}
