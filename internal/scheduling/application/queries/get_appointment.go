package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GetAppointmentQuery looks an appointment up by id or confirmation code.
type GetAppointmentQuery struct {
	// Reference is an appointment uuid or a confirmation code.
	Reference string
}

// GetAppointmentHandler handles the GetAppointmentQuery.
type GetAppointmentHandler struct {
	appointments domain.AppointmentRepository
}

// NewGetAppointmentHandler creates a new GetAppointmentHandler.
func NewGetAppointmentHandler(appointments domain.AppointmentRepository) *GetAppointmentHandler {
	return &GetAppointmentHandler{appointments: appointments}
}

// Handle executes the GetAppointmentQuery.
func (h *GetAppointmentHandler) Handle(ctx context.Context, query GetAppointmentQuery) (*AppointmentDTO, error) {
	ref := strings.TrimSpace(query.Reference)
	if ref == "" {
		return nil, fmt.Errorf("%w: appointment id or confirmation code is required", domain.ErrInvalidArgument)
	}

	var (
		appt *domain.Appointment
		err  error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		appt, err = h.appointments.FindByID(ctx, id)
	} else {
		appt, err = h.appointments.FindByConfirmationCode(ctx, strings.ToUpper(ref))
	}
	if err != nil {
		return nil, err
	}

	dto := ToAppointmentDTO(appt)
	return &dto, nil
}
