package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// RescheduleAppointmentCommand moves an appointment to a new start.
type RescheduleAppointmentCommand struct {
	AppointmentID uuid.UUID
	NewStart      time.Time
	Timezone      string
	Actor         Actor
}

// RescheduleAppointmentResult links the retired and the replacement appointment.
type RescheduleAppointmentResult struct {
	Previous      *domain.Appointment
	Replacement   *domain.Appointment
	Notifications []domain.Notification
}

// RescheduleAppointmentHandler re-resolves availability and swaps appointments atomically.
type RescheduleAppointmentHandler struct {
	deps Deps
}

// NewRescheduleAppointmentHandler creates the handler.
func NewRescheduleAppointmentHandler(deps Deps) *RescheduleAppointmentHandler {
	return &RescheduleAppointmentHandler{deps: deps.withDefaults()}
}

func (h *RescheduleAppointmentHandler) Handle(ctx context.Context, cmd RescheduleAppointmentCommand) (*RescheduleAppointmentResult, error) {
	d := h.deps
	if cmd.NewStart.IsZero() {
		return nil, fmt.Errorf("%w: new start is required", domain.ErrInvalidArgument)
	}
	loc, err := domain.LoadLocation(cmd.Timezone, d.Location)
	if err != nil {
		return nil, err
	}

	current, err := d.Appointments.FindByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	providerID := current.ProviderID()

	unlock, err := d.Locker.Lock(ctx, services.ProviderLockKey(providerID))
	if err != nil {
		return nil, fmt.Errorf("lock provider %s: %w", providerID, err)
	}
	defer unlock()

	var result *RescheduleAppointmentResult
	err = sharedApplication.WithUnitOfWork(ctx, d.UnitOfWork, func(txCtx context.Context) error {
		// Re-read under the lock; the appointment may have changed meanwhile.
		previous, err := d.Appointments.FindByID(txCtx, cmd.AppointmentID)
		if err != nil {
			return err
		}
		if !previous.IsBlocking() {
			return fmt.Errorf("%w: %s appointment cannot be rescheduled", domain.ErrInvalidTransition, previous.Status())
		}
		if err := d.Policy.CheckReschedule(previous.StartTime(), d.Clock()); err != nil {
			return err
		}

		length := previous.EndTime().Sub(previous.StartTime())
		slots, err := d.Resolver.ResolveSlots(txCtx, services.ResolveSlotsRequest{
			ProviderID:            providerID,
			Date:                  cmd.NewStart.In(loc),
			DurationMinutes:       int(length / time.Minute),
			Timezone:              loc.String(),
			ExcludeAppointmentIDs: []uuid.UUID{previous.ID()},
		})
		if err != nil {
			return err
		}
		slot, ok := findAvailable(slots, cmd.NewStart)
		if !ok {
			return unavailable(providerID, cmd.NewStart, slots)
		}

		code, err := d.Codes()
		if err != nil {
			return err
		}
		replacement, err := domain.NewAppointment(domain.NewAppointmentParams{
			ClientID:         previous.ClientID(),
			ProviderID:       providerID,
			ServiceID:        previous.ServiceID(),
			Start:            slot.Start,
			End:              slot.Start.Add(length),
			Status:           domain.StatusScheduled,
			Notes:            previous.Notes(),
			ConfirmationCode: code,
			RescheduledFrom:  previous.ID(),
		})
		if err != nil {
			return err
		}
		if err := previous.MarkRescheduled(replacement); err != nil {
			return err
		}
		if err := d.Appointments.Reschedule(txCtx, previous, replacement); err != nil {
			if errors.Is(err, domain.ErrSlotUnavailable) {
				return unavailable(providerID, cmd.NewStart, slots)
			}
			return err
		}

		events := append([]sharedDomain.DomainEvent{}, previous.DomainEvents()...)
		events = append(events, replacement.DomainEvents()...)
		if err := services.SaveEvents(txCtx, d.Outbox, events, cmd.Actor.metadata(ctx)); err != nil {
			return err
		}
		previous.ClearDomainEvents()
		replacement.ClearDomainEvents()

		result = &RescheduleAppointmentResult{
			Previous:      previous,
			Replacement:   replacement,
			Notifications: domain.NotificationsFrom(events),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			d.Metrics.Counter(observability.MetricBookingsRejected, 1, observability.T("provider", providerID))
		}
		d.Logger.WarnContext(ctx, "reschedule rejected",
			"appointment_id", cmd.AppointmentID,
			"provider_id", providerID,
			"start", cmd.NewStart,
			"error", err,
		)
		return nil, err
	}

	d.Metrics.Counter(observability.MetricAppointmentsChanged, 1, observability.T("status", string(domain.StatusRescheduled)))
	d.Logger.InfoContext(ctx, "appointment rescheduled",
		"appointment_id", result.Previous.ID(),
		"replacement_id", result.Replacement.ID(),
		"provider_id", providerID,
		"start", result.Replacement.StartTime(),
	)
	return result, nil
}
