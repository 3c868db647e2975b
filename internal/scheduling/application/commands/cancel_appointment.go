package commands

import (
	"context"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// CancelAppointmentCommand cancels a blocking appointment.
type CancelAppointmentCommand struct {
	AppointmentID uuid.UUID
	Reason        string
	Actor         Actor
}

// AppointmentResult is returned by lifecycle commands.
type AppointmentResult struct {
	Appointment   *domain.Appointment
	Notifications []domain.Notification
}

// CancelAppointmentHandler enforces the cancellation notice.
type CancelAppointmentHandler struct {
	deps Deps
}

// NewCancelAppointmentHandler creates the handler.
func NewCancelAppointmentHandler(deps Deps) *CancelAppointmentHandler {
	return &CancelAppointmentHandler{deps: deps.withDefaults()}
}

// Handle cancels the appointment. The record is kept.
func (h *CancelAppointmentHandler) Handle(ctx context.Context, cmd CancelAppointmentCommand) (*AppointmentResult, error) {
	d := h.deps
	appt, notes, err := transition(ctx, d, cmd.AppointmentID, cmd.Actor, func(a *domain.Appointment) error {
		if a.IsBlocking() {
			if err := d.Policy.CheckCancel(a.StartTime(), d.Clock()); err != nil {
				return err
			}
		}
		return a.Cancel(cmd.Reason)
	})
	if err != nil {
		d.Logger.WarnContext(ctx, "cancellation rejected", "appointment_id", cmd.AppointmentID, "error", err)
		return nil, err
	}

	d.Metrics.Counter(observability.MetricAppointmentsChanged, 1, observability.T("status", string(domain.StatusCancelled)))
	d.Logger.InfoContext(ctx, "appointment cancelled",
		"appointment_id", appt.ID(),
		"provider_id", appt.ProviderID(),
		"start", appt.StartTime(),
	)
	return &AppointmentResult{Appointment: appt, Notifications: notes}, nil
}
