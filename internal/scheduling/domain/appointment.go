package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCompleted   AppointmentStatus = "completed"
	StatusNoShow      AppointmentStatus = "no-show"
)

// BlockingStatuses occupy provider time.
var BlockingStatuses = []AppointmentStatus{StatusPending, StatusScheduled, StatusConfirmed}

// IsBlocking reports whether appointments in this status occupy provider time.
func (s AppointmentStatus) IsBlocking() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRescheduled, StatusCompleted, StatusNoShow:
		return true
	default:
		return false
	}
}

// ParseAppointmentStatus parses a persisted status value.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	s := AppointmentStatus(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusCancelled,
		StatusRescheduled, StatusCompleted, StatusNoShow:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown appointment status %q", ErrInvalidArgument, value)
	}
}

// Appointment is a booked session between a client and a provider.
type Appointment struct {
	sharedDomain.BaseAggregateRoot
	clientID           string
	providerID         string
	serviceID          string
	startTime          time.Time
	endTime            time.Time
	status             AppointmentStatus
	notes              string
	cancellationReason string
	recurringGroupID   uuid.UUID
	pattern            *RecurringPattern
	rescheduledFrom    uuid.UUID
	rescheduledTo      uuid.UUID
	confirmationCode   string
}

// NewAppointmentParams holds the inputs for a new appointment.
type NewAppointmentParams struct {
	ClientID         string
	ProviderID       string
	ServiceID        string
	Start            time.Time
	End              time.Time
	Status           AppointmentStatus
	Notes            string
	ConfirmationCode string
	RecurringGroupID uuid.UUID
	Pattern          *RecurringPattern
	RescheduledFrom  uuid.UUID
}

// NewAppointment creates an appointment in an initial blocking status and
// records an AppointmentCreated event.
func NewAppointment(p NewAppointmentParams) (*Appointment, error) {
	if p.ClientID == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidArgument)
	}
	if p.ProviderID == "" {
		return nil, fmt.Errorf("%w: provider id is required", ErrInvalidArgument)
	}
	if p.ServiceID == "" {
		return nil, fmt.Errorf("%w: service id is required", ErrInvalidArgument)
	}
	if _, err := NewInterval(p.Start, p.End); err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = StatusScheduled
	}
	if status != StatusPending && status != StatusScheduled {
		return nil, fmt.Errorf("%w: appointments start pending or scheduled, got %s", ErrInvalidTransition, status)
	}

	a := &Appointment{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		clientID:          p.ClientID,
		providerID:        p.ProviderID,
		serviceID:         p.ServiceID,
		startTime:         p.Start,
		endTime:           p.End,
		status:            status,
		notes:             p.Notes,
		recurringGroupID:  p.RecurringGroupID,
		pattern:           p.Pattern,
		rescheduledFrom:   p.RescheduledFrom,
		confirmationCode:  p.ConfirmationCode,
	}
	a.AddDomainEvent(NewAppointmentCreated(a))
	return a, nil
}

// AppointmentState is the persisted shape of an appointment.
type AppointmentState struct {
	ID                 uuid.UUID
	ClientID           string
	ProviderID         string
	ServiceID          string
	Start              time.Time
	End                time.Time
	Status             AppointmentStatus
	Notes              string
	CancellationReason string
	RecurringGroupID   uuid.UUID
	Pattern            *RecurringPattern
	RescheduledFrom    uuid.UUID
	RescheduledTo      uuid.UUID
	ConfirmationCode   string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int
}

// RehydrateAppointment recreates an appointment from persisted state without emitting events.
func RehydrateAppointment(s AppointmentState) *Appointment {
	entity := sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt)
	return &Appointment{
		BaseAggregateRoot:  sharedDomain.RehydrateBaseAggregateRoot(entity, s.Version),
		clientID:           s.ClientID,
		providerID:         s.ProviderID,
		serviceID:          s.ServiceID,
		startTime:          s.Start,
		endTime:            s.End,
		status:             s.Status,
		notes:              s.Notes,
		cancellationReason: s.CancellationReason,
		recurringGroupID:   s.RecurringGroupID,
		pattern:            s.Pattern,
		rescheduledFrom:    s.RescheduledFrom,
		rescheduledTo:      s.RescheduledTo,
		confirmationCode:   s.ConfirmationCode,
	}
}

// State returns a snapshot suitable for persistence.
func (a *Appointment) State() AppointmentState {
	return AppointmentState{
		ID:                 a.ID(),
		ClientID:           a.clientID,
		ProviderID:         a.providerID,
		ServiceID:          a.serviceID,
		Start:              a.startTime,
		End:                a.endTime,
		Status:             a.status,
		Notes:              a.notes,
		CancellationReason: a.cancellationReason,
		RecurringGroupID:   a.recurringGroupID,
		Pattern:            a.pattern,
		RescheduledFrom:    a.rescheduledFrom,
		RescheduledTo:      a.rescheduledTo,
		ConfirmationCode:   a.confirmationCode,
		CreatedAt:          a.CreatedAt(),
		UpdatedAt:          a.UpdatedAt(),
		Version:            a.Version(),
	}
}

// Getters
func (a *Appointment) ClientID() string            { return a.clientID }
func (a *Appointment) ProviderID() string          { return a.providerID }
func (a *Appointment) ServiceID() string           { return a.serviceID }
func (a *Appointment) StartTime() time.Time        { return a.startTime }
func (a *Appointment) EndTime() time.Time          { return a.endTime }
func (a *Appointment) Status() AppointmentStatus   { return a.status }
func (a *Appointment) Notes() string               { return a.notes }
func (a *Appointment) CancellationReason() string  { return a.cancellationReason }
func (a *Appointment) RecurringGroupID() uuid.UUID { return a.recurringGroupID }
func (a *Appointment) Pattern() *RecurringPattern  { return a.pattern }
func (a *Appointment) RescheduledFrom() uuid.UUID  { return a.rescheduledFrom }
func (a *Appointment) RescheduledTo() uuid.UUID    { return a.rescheduledTo }
func (a *Appointment) ConfirmationCode() string    { return a.confirmationCode }
func (a *Appointment) IsBlocking() bool            { return a.status.IsBlocking() }
func (a *Appointment) Interval() Interval          { return Interval{Start: a.startTime, End: a.endTime} }
func (a *Appointment) IsRecurring() bool           { return a.recurringGroupID != uuid.Nil }

// JoinSeries attaches the appointment to a recurring group before it is stored.
func (a *Appointment) JoinSeries(groupID uuid.UUID, pattern *RecurringPattern) {
	a.recurringGroupID = groupID
	a.pattern = pattern
	a.Touch()
}

// Approve moves a pending consultation to scheduled.
func (a *Appointment) Approve() error {
	if a.status != StatusPending {
		return a.transitionError(StatusScheduled)
	}
	a.status = StatusScheduled
	a.Touch()
	a.AddDomainEvent(NewAppointmentApproved(a))
	return nil
}

// Confirm records that the client confirmed attendance.
func (a *Appointment) Confirm() error {
	if a.status != StatusScheduled {
		return a.transitionError(StatusConfirmed)
	}
	a.status = StatusConfirmed
	a.Touch()
	a.AddDomainEvent(NewAppointmentConfirmed(a))
	return nil
}

// Cancel ends a blocking appointment. Notice policy is checked by the caller.
func (a *Appointment) Cancel(reason string) error {
	if !a.status.IsBlocking() {
		return a.transitionError(StatusCancelled)
	}
	a.status = StatusCancelled
	a.cancellationReason = reason
	a.Touch()
	a.AddDomainEvent(NewAppointmentCancelled(a))
	return nil
}

// MarkRescheduled retires the appointment in favour of replacement.
func (a *Appointment) MarkRescheduled(replacement *Appointment) error {
	if !a.status.IsBlocking() {
		return a.transitionError(StatusRescheduled)
	}
	if replacement == nil || replacement.ID() == a.ID() {
		return fmt.Errorf("%w: reschedule needs a distinct replacement", ErrInvalidArgument)
	}
	a.status = StatusRescheduled
	a.rescheduledTo = replacement.ID()
	a.Touch()
	a.AddDomainEvent(NewAppointmentRescheduled(a, replacement))
	return nil
}

// Complete records that the session took place.
func (a *Appointment) Complete() error {
	if a.status != StatusScheduled && a.status != StatusConfirmed {
		return a.transitionError(StatusCompleted)
	}
	a.status = StatusCompleted
	a.Touch()
	a.AddDomainEvent(NewAppointmentCompleted(a))
	return nil
}

// MarkNoShow records that the client did not attend.
func (a *Appointment) MarkNoShow() error {
	if a.status != StatusScheduled && a.status != StatusConfirmed {
		return a.transitionError(StatusNoShow)
	}
	a.status = StatusNoShow
	a.Touch()
	a.AddDomainEvent(NewAppointmentNoShow(a))
	return nil
}

// SetNotes replaces the free-text notes.
func (a *Appointment) SetNotes(notes string) {
	a.notes = notes
	a.Touch()
}

func (a *Appointment) transitionError(to AppointmentStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.status, to)
}
