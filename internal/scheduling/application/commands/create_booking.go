package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// MaxAlternatives bounds the courtesy suggestions returned with a rejection.
const MaxAlternatives = 3

// CreateBookingCommand requests an appointment at an exact start.
type CreateBookingCommand struct {
	ServiceID string
	// ProviderID defaults to the configured primary provider.
	ProviderID string
	ClientID   string
	Start      time.Time
	Notes      string
	Recurrence *domain.RecurringPattern
	Timezone   string
	Actor      Actor
}

// CreateBookingResult describes a committed booking.
type CreateBookingResult struct {
	Appointment   *domain.Appointment
	Service       *domain.Service
	Recurrence    *services.ExpansionReport
	Notifications []domain.Notification
}

// CreateBookingHandler validates and reserves a slot.
type CreateBookingHandler struct {
	deps Deps
}

// NewCreateBookingHandler creates the handler.
func NewCreateBookingHandler(deps Deps) *CreateBookingHandler {
	return &CreateBookingHandler{deps: deps.withDefaults()}
}

// Handle books the slot. A series with rejected instances returns the result
// together with a *domain.PartialRecurrenceError.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	d := h.deps
	if cmd.ClientID == "" {
		return nil, fmt.Errorf("%w: client id is required", domain.ErrInvalidArgument)
	}
	if cmd.Start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", domain.ErrInvalidArgument)
	}
	if cmd.Recurrence != nil {
		if err := cmd.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	providerID := cmd.ProviderID
	if providerID == "" {
		providerID = d.DefaultProviderID
	}
	loc, err := domain.LoadLocation(cmd.Timezone, d.Location)
	if err != nil {
		return nil, err
	}

	service, err := d.Catalog.FindService(ctx, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, fmt.Errorf("%w: service %q is not active", domain.ErrNotFound, cmd.ServiceID)
	}

	unlock, err := d.Locker.Lock(ctx, services.ProviderLockKey(providerID))
	if err != nil {
		return nil, fmt.Errorf("lock provider %s: %w", providerID, err)
	}
	defer unlock()

	md := cmd.Actor.metadata(ctx)
	var appt *domain.Appointment
	var notes []domain.Notification
	err = sharedApplication.WithUnitOfWork(ctx, d.UnitOfWork, func(txCtx context.Context) error {
		slots, err := d.Resolver.ResolveSlots(txCtx, services.ResolveSlotsRequest{
			ProviderID:      providerID,
			Date:            cmd.Start.In(loc),
			DurationMinutes: service.DurationMinutes,
			Timezone:        loc.String(),
		})
		if err != nil {
			return err
		}
		slot, ok := findAvailable(slots, cmd.Start)
		if !ok {
			return unavailable(providerID, cmd.Start, slots)
		}

		code, err := d.Codes()
		if err != nil {
			return err
		}
		a, err := domain.NewAppointment(domain.NewAppointmentParams{
			ClientID:         cmd.ClientID,
			ProviderID:       providerID,
			ServiceID:        service.ID,
			Start:            slot.Start,
			End:              slot.End,
			Status:           service.InitialStatus(),
			Notes:            cmd.Notes,
			ConfirmationCode: code,
		})
		if err != nil {
			return err
		}
		if cmd.Recurrence != nil {
			pattern := *cmd.Recurrence
			a.JoinSeries(uuid.New(), &pattern)
		}
		if err := d.Appointments.InsertIfAvailable(txCtx, a); err != nil {
			if errors.Is(err, domain.ErrSlotUnavailable) {
				return unavailable(providerID, cmd.Start, slots)
			}
			return err
		}
		if err := services.SaveEvents(txCtx, d.Outbox, a.DomainEvents(), md); err != nil {
			return err
		}
		notes = domain.NotificationsFrom(a.DomainEvents())
		a.ClearDomainEvents()
		appt = a
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			d.Metrics.Counter(observability.MetricBookingsRejected, 1, observability.T("provider", providerID))
			d.Logger.WarnContext(ctx, "booking rejected",
				"provider_id", providerID,
				"service_id", service.ID,
				"start", cmd.Start,
				"error", err,
			)
		}
		return nil, err
	}

	d.Metrics.Counter(observability.MetricBookingsCreated, 1, observability.T("provider", providerID))
	d.Logger.InfoContext(ctx, "booking created",
		"appointment_id", appt.ID(),
		"provider_id", providerID,
		"service_id", service.ID,
		"start", appt.StartTime(),
		"status", appt.Status(),
	)

	result := &CreateBookingResult{Appointment: appt, Service: service, Notifications: notes}
	if cmd.Recurrence == nil {
		return result, nil
	}

	report, err := d.Expander.ExpandLocked(ctx, appt, *cmd.Recurrence, services.ExpandOptions{Location: loc, Metadata: md})
	if err != nil {
		return result, fmt.Errorf("expand recurring booking %s: %w", appt.ID(), err)
	}
	result.Recurrence = report
	result.Notifications = append(result.Notifications, report.Notifications...)
	d.Metrics.Counter(observability.MetricBookingsCreated, int64(len(report.Created)), observability.T("provider", providerID))
	return result, report.Err()
}

func findAvailable(slots []domain.TimeSlot, start time.Time) (domain.TimeSlot, bool) {
	for _, s := range slots {
		if s.Available && s.Start.Equal(start) {
			return s, true
		}
	}
	return domain.TimeSlot{}, false
}

func unavailable(providerID string, requested time.Time, slots []domain.TimeSlot) error {
	return &domain.SlotUnavailableError{
		ProviderID:   providerID,
		Requested:    requested,
		Alternatives: services.Alternatives(slots, requested, MaxAlternatives),
	}
}
