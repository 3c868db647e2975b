package domain

import (
	"fmt"
	"time"
)

// AvailabilityRule is a provider's recurring weekly window.
type AvailabilityRule struct {
	ID             string
	ProviderID     string
	DayOfWeek      int // 0 = Sunday
	Start          Clock
	End            Clock
	Active         bool
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
}

// Validate checks the rule invariants.
func (r AvailabilityRule) Validate() error {
	if r.ProviderID == "" {
		return fmt.Errorf("%w: availability rule %s has no provider", ErrInvalidArgument, r.ID)
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("%w: availability rule %s day of week %d out of range", ErrInvalidArgument, r.ID, r.DayOfWeek)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: availability rule %s start %s is not before end %s", ErrInvalidArgument, r.ID, r.Start, r.End)
	}
	return nil
}

// AppliesOn reports whether the rule is in force on the civil date of day.
func (r AvailabilityRule) AppliesOn(day time.Time) bool {
	if !r.Active || Weekday(day) != r.DayOfWeek {
		return false
	}
	d := civilDate(day)
	if r.EffectiveFrom != nil && d < civilDate(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && d > civilDate(*r.EffectiveUntil) {
		return false
	}
	return true
}

// Window returns the absolute interval the rule covers on day, in loc.
func (r AvailabilityRule) Window(day time.Time, loc *time.Location) Interval {
	return Interval{Start: r.Start.On(day, loc), End: r.End.On(day, loc)}
}

func civilDate(t time.Time) string {
	return t.Format("2006-01-02")
}
