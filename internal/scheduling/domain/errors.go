package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrSlotUnavailable      = errors.New("slot unavailable")
	ErrPolicyViolation      = errors.New("policy violation")
	ErrPartialRecurrence    = errors.New("recurring series partially created")
	ErrInvalidTransition    = errors.New("invalid appointment status transition")
	ErrDuplicateAppointment = errors.New("appointment already exists")
)

// SlotUnavailableError is returned when a requested start is not offerable at
// commit time. Alternatives are a courtesy, not a retry.
type SlotUnavailableError struct {
	ProviderID   string
	Requested    time.Time
	Alternatives []TimeSlot
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: provider %s at %s (%d alternatives)",
		e.ProviderID, e.Requested.Format(time.RFC3339), len(e.Alternatives))
}

func (e *SlotUnavailableError) Unwrap() error {
	return ErrSlotUnavailable
}

// InstanceFailure describes one recurring instance that could not be reserved.
type InstanceFailure struct {
	Start  time.Time
	Reason string
}

// PartialRecurrenceError carries the outcome of a series in which some
// instances were committed and others were rejected.
type PartialRecurrenceError struct {
	GroupID string
	Created []*Appointment
	Failed  []InstanceFailure
}

func (e *PartialRecurrenceError) Error() string {
	dates := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		dates = append(dates, f.Start.Format("2006-01-02"))
	}
	return fmt.Sprintf("recurring series %s: %d created, %d failed (%s)",
		e.GroupID, len(e.Created), len(e.Failed), strings.Join(dates, ", "))
}

func (e *PartialRecurrenceError) Unwrap() error {
	return ErrPartialRecurrence
}
