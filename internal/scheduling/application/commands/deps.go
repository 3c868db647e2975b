package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// Deps are the collaborators shared by the booking command handlers.
type Deps struct {
	Appointments domain.AppointmentRepository
	Blocks       domain.BlockedIntervalRepository
	Catalog      domain.Catalog
	Outbox       outbox.Repository
	UnitOfWork   sharedApplication.UnitOfWork
	Resolver     *services.AvailabilityResolver
	Expander     *services.RecurrenceExpander
	Locker       services.Locker
	Codes        services.CodeGenerator
	Clock        services.Clock
	Policy       domain.CancellationPolicy

	DefaultProviderID string
	Location          *time.Location

	Logger  *slog.Logger
	Metrics observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.UnitOfWork == nil {
		d.UnitOfWork = sharedApplication.NoopUnitOfWork{}
	}
	if d.Codes == nil {
		d.Codes = services.NewConfirmationCode
	}
	if d.Clock == nil {
		d.Clock = services.SystemClock
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	return d
}

// Actor identifies who issued a command and the request it belongs to.
type Actor struct {
	ID            string
	CorrelationID uuid.UUID
}

func (a Actor) metadata(ctx context.Context) sharedDomain.EventMetadata {
	correlation := a.CorrelationID
	if correlation == uuid.Nil {
		correlation = observability.CorrelationUUID(ctx)
	}
	actor := a.ID
	if actor == "" {
		actor = observability.ActorIDFromContext(ctx)
	}
	return sharedApplication.NewEventMetadata(actor, correlation)
}

// transition loads an appointment, applies fn and persists the result with its events.
func transition(ctx context.Context, d Deps, id uuid.UUID, actor Actor, fn func(*domain.Appointment) error) (*domain.Appointment, []domain.Notification, error) {
	var appt *domain.Appointment
	var notes []domain.Notification
	err := sharedApplication.WithUnitOfWork(ctx, d.UnitOfWork, func(txCtx context.Context) error {
		a, err := d.Appointments.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		if err := d.Appointments.Update(txCtx, a); err != nil {
			return err
		}
		events := a.DomainEvents()
		if err := services.SaveEvents(txCtx, d.Outbox, events, actor.metadata(ctx)); err != nil {
			return err
		}
		notes = domain.NotificationsFrom(events)
		a.ClearDomainEvents()
		appt = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return appt, notes, nil
}
