package domain

import "time"

// TimeSlot is an ephemeral bookable candidate produced by availability resolution.
type TimeSlot struct {
	Start      time.Time
	End        time.Time
	ProviderID string
	Available  bool
}

// Interval returns the slot range.
func (s TimeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// AvailableSlots filters slots down to the offerable ones, preserving order.
func AvailableSlots(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}
