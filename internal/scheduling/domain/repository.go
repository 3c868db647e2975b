package domain

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentFilter narrows range reads. Empty fields match everything.
type AppointmentFilter struct {
	ProviderID string
	ClientID   string
	Range      Interval
	Statuses   []AppointmentStatus
}

// AppointmentRepository is the storage boundary for appointments.
type AppointmentRepository interface {
	// FindByID returns ErrNotFound when no appointment has id.
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByConfirmationCode returns ErrNotFound for unknown codes.
	FindByConfirmationCode(ctx context.Context, code string) (*Appointment, error)

	// ListBlocking returns the provider's blocking appointments overlapping window.
	ListBlocking(ctx context.Context, providerID string, window Interval) ([]*Appointment, error)

	// ListInRange returns appointments overlapping filter.Range ordered by start.
	ListInRange(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error)

	// InsertIfAvailable stores appt only if no blocking appointment of the same
	// provider overlaps it. It returns ErrSlotUnavailable otherwise.
	InsertIfAvailable(ctx context.Context, appt *Appointment) error

	// Update persists status, notes and linkage changes of an existing appointment.
	Update(ctx context.Context, appt *Appointment) error

	// Reschedule updates previous and inserts replacement as one atomic step.
	// The replacement may overlap previous but no other blocking appointment.
	Reschedule(ctx context.Context, previous, replacement *Appointment) error
}

// BlockedIntervalRepository stores blocked time.
type BlockedIntervalRepository interface {
	Save(ctx context.Context, block *BlockedInterval) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*BlockedInterval, error)
	// ListForProvider returns blocks scoped to providerID or global that may
	// overlap window. Recurring blocks are returned whenever their series
	// starts before window ends; callers expand occurrences.
	ListForProvider(ctx context.Context, providerID string, window Interval) ([]BlockedInterval, error)
}

// Catalog exposes administrative configuration.
type Catalog interface {
	FindService(ctx context.Context, id string) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	ListRules(ctx context.Context, providerID string) ([]AvailabilityRule, error)
}
