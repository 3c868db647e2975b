package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlockedInterval removes time from availability. An empty ProviderID blocks every provider.
type BlockedInterval struct {
	ID         uuid.UUID
	ProviderID string
	Start      time.Time
	End        time.Time
	Reason     string
	Recurrence *RecurringPattern
	// Timezone anchors wall-clock stepping of recurring blocks. Empty means UTC.
	Timezone string
}

// NewBlockedInterval validates and creates a blocked interval.
func NewBlockedInterval(providerID string, start, end time.Time, reason string, recurrence *RecurringPattern, timezone string) (*BlockedInterval, error) {
	if _, err := NewInterval(start, end); err != nil {
		return nil, err
	}
	if recurrence != nil {
		if err := recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	if _, err := LoadLocation(timezone, time.UTC); err != nil {
		return nil, err
	}
	return &BlockedInterval{
		ID:         uuid.New(),
		ProviderID: providerID,
		Start:      start,
		End:        end,
		Reason:     reason,
		Recurrence: recurrence,
		Timezone:   timezone,
	}, nil
}

// AppliesTo reports whether the block constrains providerID.
func (b BlockedInterval) AppliesTo(providerID string) bool {
	return b.ProviderID == "" || b.ProviderID == providerID
}

// Occurrences returns every instance of the block that overlaps window.
func (b BlockedInterval) Occurrences(window Interval) ([]Interval, error) {
	length := b.End.Sub(b.Start)
	if b.Recurrence == nil {
		base := Interval{Start: b.Start, End: b.End}
		if base.Overlaps(window) {
			return []Interval{base}, nil
		}
		return nil, nil
	}

	loc, err := LoadLocation(b.Timezone, time.UTC)
	if err != nil {
		return nil, err
	}
	starts, err := b.Recurrence.Dates(b.Start.In(loc))
	if err != nil {
		return nil, fmt.Errorf("expand blocked interval %s: %w", b.ID, err)
	}
	var out []Interval
	for _, s := range starts {
		occ := Interval{Start: s, End: s.Add(length)}
		if occ.Overlaps(window) {
			out = append(out, occ)
		}
	}
	return out, nil
}
