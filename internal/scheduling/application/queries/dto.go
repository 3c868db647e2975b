package queries

import (
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// AppointmentDTO is the read model of an appointment.
type AppointmentDTO struct {
	ID                 uuid.UUID                `json:"id"`
	ClientID           string                   `json:"client_id"`
	ProviderID         string                   `json:"provider_id"`
	ServiceID          string                   `json:"service_id"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	Status             string                   `json:"status"`
	Notes              string                   `json:"notes,omitempty"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
	ConfirmationCode   string                   `json:"confirmation_code"`
	RecurringGroupID   *uuid.UUID               `json:"recurring_group_id,omitempty"`
	Recurrence         *domain.RecurringPattern `json:"recurrence,omitempty"`
	RescheduledFrom    *uuid.UUID               `json:"rescheduled_from,omitempty"`
	RescheduledTo      *uuid.UUID               `json:"rescheduled_to,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// ToAppointmentDTO converts an aggregate into its read model.
func ToAppointmentDTO(a *domain.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:                 a.ID(),
		ClientID:           a.ClientID(),
		ProviderID:         a.ProviderID(),
		ServiceID:          a.ServiceID(),
		Start:              a.StartTime(),
		End:                a.EndTime(),
		Status:             string(a.Status()),
		Notes:              a.Notes(),
		CancellationReason: a.CancellationReason(),
		ConfirmationCode:   a.ConfirmationCode(),
		RecurringGroupID:   optionalID(a.RecurringGroupID()),
		Recurrence:         a.Pattern(),
		RescheduledFrom:    optionalID(a.RescheduledFrom()),
		RescheduledTo:      optionalID(a.RescheduledTo()),
		CreatedAt:          a.CreatedAt(),
		UpdatedAt:          a.UpdatedAt(),
	}
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
