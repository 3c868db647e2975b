package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Appointment"

	RoutingKeyAppointmentCreated     = "scheduling.appointment.created"
	RoutingKeyAppointmentApproved    = "scheduling.appointment.approved"
	RoutingKeyAppointmentConfirmed   = "scheduling.appointment.confirmed"
	RoutingKeyAppointmentCancelled   = "scheduling.appointment.cancelled"
	RoutingKeyAppointmentRescheduled = "scheduling.appointment.rescheduled"
	RoutingKeyAppointmentCompleted   = "scheduling.appointment.completed"
	RoutingKeyAppointmentNoShow      = "scheduling.appointment.no_show"
)

// AppointmentCreated is emitted when a booking is committed.
type AppointmentCreated struct {
	sharedDomain.BaseEvent
	AppointmentID    uuid.UUID         `json:"appointment_id"`
	ClientID         string            `json:"client_id"`
	ProviderID       string            `json:"provider_id"`
	ServiceID        string            `json:"service_id"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	Status           AppointmentStatus `json:"status"`
	ConfirmationCode string            `json:"confirmation_code"`
	RecurringGroupID uuid.UUID         `json:"recurring_group_id,omitempty"`
	RescheduledFrom  uuid.UUID         `json:"rescheduled_from,omitempty"`
}

// NewAppointmentCreated creates an AppointmentCreated event.
func NewAppointmentCreated(a *Appointment) *AppointmentCreated {
	return &AppointmentCreated{
		BaseEvent:        sharedDomain.NewBaseEvent(a.ID(), AggregateType, RoutingKeyAppointmentCreated),
		AppointmentID:    a.ID(),
		ClientID:         a.clientID,
		ProviderID:       a.providerID,
		ServiceID:        a.serviceID,
		StartTime:        a.startTime,
		EndTime:          a.endTime,
		Status:           a.status,
		ConfirmationCode: a.confirmationCode,
		RecurringGroupID: a.recurringGroupID,
		RescheduledFrom:  a.rescheduledFrom,
	}
}

// AppointmentCancelled is emitted when an appointment is cancelled.
type AppointmentCancelled struct {
	sharedDomain.BaseEvent
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      string    `json:"client_id"`
	ProviderID    string    `json:"provider_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Reason        string    `json:"reason"`
}

// NewAppointmentCancelled creates an AppointmentCancelled event.
func NewAppointmentCancelled(a *Appointment) *AppointmentCancelled {
	return &AppointmentCancelled{
		BaseEvent:     sharedDomain.NewBaseEvent(a.ID(), AggregateType, RoutingKeyAppointmentCancelled),
		AppointmentID: a.ID(),
		ClientID:      a.clientID,
		ProviderID:    a.providerID,
		StartTime:     a.startTime,
		EndTime:       a.endTime,
		Reason:        a.cancellationReason,
	}
}

// AppointmentRescheduled is emitted on the retired appointment when it is moved.
type AppointmentRescheduled struct {
	sharedDomain.BaseEvent
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      string    `json:"client_id"`
	ProviderID    string    `json:"provider_id"`
	ReplacementID uuid.UUID `json:"replacement_id"`
	OldStartTime  time.Time `json:"old_start_time"`
	OldEndTime    time.Time `json:"old_end_time"`
	NewStartTime  time.Time `json:"new_start_time"`
	NewEndTime    time.Time `json:"new_end_time"`
}

// NewAppointmentRescheduled creates an AppointmentRescheduled event.
func NewAppointmentRescheduled(old, replacement *Appointment) *AppointmentRescheduled {
	return &AppointmentRescheduled{
		BaseEvent:     sharedDomain.NewBaseEvent(old.ID(), AggregateType, RoutingKeyAppointmentRescheduled),
		AppointmentID: old.ID(),
		ClientID:      old.clientID,
		ProviderID:    old.providerID,
		ReplacementID: replacement.ID(),
		OldStartTime:  old.startTime,
		OldEndTime:    old.endTime,
		NewStartTime:  replacement.startTime,
		NewEndTime:    replacement.endTime,
	}
}

// AppointmentStatusChanged is emitted for the remaining transitions.
type AppointmentStatusChanged struct {
	sharedDomain.BaseEvent
	AppointmentID uuid.UUID         `json:"appointment_id"`
	ProviderID    string            `json:"provider_id"`
	Status        AppointmentStatus `json:"status"`
	StartTime     time.Time         `json:"start_time"`
}

func newStatusChanged(a *Appointment, routingKey string) *AppointmentStatusChanged {
	return &AppointmentStatusChanged{
		BaseEvent:     sharedDomain.NewBaseEvent(a.ID(), AggregateType, routingKey),
		AppointmentID: a.ID(),
		ProviderID:    a.providerID,
		Status:        a.status,
		StartTime:     a.startTime,
	}
}

// NewAppointmentApproved creates the event for pending -> scheduled.
func NewAppointmentApproved(a *Appointment) *AppointmentStatusChanged {
	return newStatusChanged(a, RoutingKeyAppointmentApproved)
}

// NewAppointmentConfirmed creates the event for scheduled -> confirmed.
func NewAppointmentConfirmed(a *Appointment) *AppointmentStatusChanged {
	return newStatusChanged(a, RoutingKeyAppointmentConfirmed)
}

// NewAppointmentCompleted creates the event for a completed session.
func NewAppointmentCompleted(a *Appointment) *AppointmentStatusChanged {
	return newStatusChanged(a, RoutingKeyAppointmentCompleted)
}

// NewAppointmentNoShow creates the event for a missed session.
func NewAppointmentNoShow(a *Appointment) *AppointmentStatusChanged {
	return newStatusChanged(a, RoutingKeyAppointmentNoShow)
}
