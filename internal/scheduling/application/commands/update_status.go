package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// ApproveAppointmentCommand approves a pending consultation.
type ApproveAppointmentCommand struct {
	AppointmentID uuid.UUID
	Actor         Actor
}

// ApproveAppointmentHandler moves pending to scheduled.
type ApproveAppointmentHandler struct {
	deps Deps
}

// NewApproveAppointmentHandler creates the handler.
func NewApproveAppointmentHandler(deps Deps) *ApproveAppointmentHandler {
	return &ApproveAppointmentHandler{deps: deps.withDefaults()}
}

func (h *ApproveAppointmentHandler) Handle(ctx context.Context, cmd ApproveAppointmentCommand) (*AppointmentResult, error) {
	return changeStatus(ctx, h.deps, cmd.AppointmentID, cmd.Actor, (*domain.Appointment).Approve)
}

// ConfirmAppointmentCommand records client confirmation.
type ConfirmAppointmentCommand struct {
	AppointmentID uuid.UUID
	Actor         Actor
}

// ConfirmAppointmentHandler moves scheduled to confirmed.
type ConfirmAppointmentHandler struct {
	deps Deps
}

// NewConfirmAppointmentHandler creates the handler.
func NewConfirmAppointmentHandler(deps Deps) *ConfirmAppointmentHandler {
	return &ConfirmAppointmentHandler{deps: deps.withDefaults()}
}

func (h *ConfirmAppointmentHandler) Handle(ctx context.Context, cmd ConfirmAppointmentCommand) (*AppointmentResult, error) {
	return changeStatus(ctx, h.deps, cmd.AppointmentID, cmd.Actor, (*domain.Appointment).Confirm)
}

// Outcome is reported by the session collaborator once a session is over.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeNoShow    Outcome = "no-show"
)

// RecordOutcomeCommand closes a held appointment.
type RecordOutcomeCommand struct {
	AppointmentID uuid.UUID
	Outcome       Outcome
	Actor         Actor
}

// RecordOutcomeHandler marks appointments completed or no-show.
type RecordOutcomeHandler struct {
	deps Deps
}

// NewRecordOutcomeHandler creates the handler.
func NewRecordOutcomeHandler(deps Deps) *RecordOutcomeHandler {
	return &RecordOutcomeHandler{deps: deps.withDefaults()}
}

func (h *RecordOutcomeHandler) Handle(ctx context.Context, cmd RecordOutcomeCommand) (*AppointmentResult, error) {
	switch cmd.Outcome {
	case OutcomeCompleted:
		return changeStatus(ctx, h.deps, cmd.AppointmentID, cmd.Actor, (*domain.Appointment).Complete)
	case OutcomeNoShow:
		return changeStatus(ctx, h.deps, cmd.AppointmentID, cmd.Actor, (*domain.Appointment).MarkNoShow)
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidArgument, cmd.Outcome)
	}
}

func changeStatus(ctx context.Context, d Deps, id uuid.UUID, actor Actor, fn func(*domain.Appointment) error) (*AppointmentResult, error) {
	appt, notes, err := transition(ctx, d, id, actor, fn)
	if err != nil {
		d.Logger.WarnContext(ctx, "status change rejected", "appointment_id", id, "error", err)
		return nil, err
	}
	d.Metrics.Counter(observability.MetricAppointmentsChanged, 1, observability.T("status", string(appt.Status())))
	d.Logger.InfoContext(ctx, "appointment status changed",
		"appointment_id", appt.ID(),
		"provider_id", appt.ProviderID(),
		"status", appt.Status(),
	)
	return &AppointmentResult{Appointment: appt, Notifications: notes}, nil
}
