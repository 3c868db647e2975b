package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/solace/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// ExpansionReport is the per-instance outcome of a recurring series.
type ExpansionReport struct {
	GroupID uuid.UUID
	// Dates is the full planned sequence, base instance first.
	Dates         []time.Time
	Created       []*domain.Appointment
	Failed        []domain.InstanceFailure
	Notifications []domain.Notification
}

// HasFailures reports whether any sibling was rejected.
func (r *ExpansionReport) HasFailures() bool { return len(r.Failed) > 0 }

// Err returns a *domain.PartialRecurrenceError when instances failed.
func (r *ExpansionReport) Err() error {
	if !r.HasFailures() {
		return nil
	}
	return &domain.PartialRecurrenceError{GroupID: r.GroupID.String(), Created: r.Created, Failed: r.Failed}
}

// siblingRejection rolls back a sibling's unit of work with a reason that is
// reported per instance rather than failing the series.
type siblingRejection struct{ reason string }

func (r *siblingRejection) Error() string { return r.reason }

// RecurrenceExpander books the siblings of a recurring appointment. Each
// sibling is an independent reservation in its own unit of work and must be
// offered by the resolver like any other booking.
type RecurrenceExpander struct {
	resolver     *AvailabilityResolver
	appointments domain.AppointmentRepository
	blocks       domain.BlockedIntervalRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	locker       Locker
	codes        CodeGenerator
	location     *time.Location
	metrics      observability.Metrics
	logger       *slog.Logger
}

// NewRecurrenceExpander creates an expander.
func NewRecurrenceExpander(
	resolver *AvailabilityResolver,
	appointments domain.AppointmentRepository,
	blocks domain.BlockedIntervalRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locker Locker,
	codes CodeGenerator,
	location *time.Location,
	metrics observability.Metrics,
	logger *slog.Logger,
) *RecurrenceExpander {
	if codes == nil {
		codes = NewConfirmationCode
	}
	if location == nil {
		location = time.UTC
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurrenceExpander{
		resolver:     resolver,
		appointments: appointments,
		blocks:       blocks,
		outboxRepo:   outboxRepo,
		uow:          uow,
		locker:       locker,
		codes:        codes,
		location:     location,
		metrics:      metrics,
		logger:       logger,
	}
}

// ExpandOptions tune a single expansion.
type ExpandOptions struct {
	// Location drives day and month stepping; nil means the practice timezone.
	Location *time.Location
	Metadata sharedDomain.EventMetadata
}

// Plan returns the series dates for a base start. It is a pure function of its inputs.
func (e *RecurrenceExpander) Plan(start time.Time, pattern domain.RecurringPattern, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = e.location
	}
	return pattern.Dates(start.In(loc))
}

// Expand takes the provider lock and books every sibling of base.
func (e *RecurrenceExpander) Expand(ctx context.Context, base *domain.Appointment, pattern domain.RecurringPattern, opts ExpandOptions) (*ExpansionReport, error) {
	unlock, err := e.locker.Lock(ctx, ProviderLockKey(base.ProviderID()))
	if err != nil {
		return nil, fmt.Errorf("lock provider %s: %w", base.ProviderID(), err)
	}
	defer unlock()
	return e.ExpandLocked(ctx, base, pattern, opts)
}

// ExpandLocked is Expand for callers already holding the provider lock.
// A base without a recurring group is attached to a new one and updated.
func (e *RecurrenceExpander) ExpandLocked(ctx context.Context, base *domain.Appointment, pattern domain.RecurringPattern, opts ExpandOptions) (*ExpansionReport, error) {
	dates, err := e.Plan(base.StartTime(), pattern, opts.Location)
	if err != nil {
		return nil, err
	}

	if !base.IsRecurring() {
		p := pattern
		base.JoinSeries(uuid.New(), &p)
		if err := e.appointments.Update(ctx, base); err != nil {
			return nil, fmt.Errorf("attach base appointment to series: %w", err)
		}
	}

	loc := opts.Location
	if loc == nil {
		loc = e.location
	}
	report := &ExpansionReport{GroupID: base.RecurringGroupID(), Dates: dates}
	length := base.EndTime().Sub(base.StartTime())
	for _, start := range dates[1:] {
		appt, reason, err := e.bookSibling(ctx, base, start.In(loc), start.Add(length), opts.Metadata)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			report.Failed = append(report.Failed, domain.InstanceFailure{Start: start, Reason: reason})
			continue
		}
		report.Created = append(report.Created, appt)
	}

	for _, appt := range report.Created {
		report.Notifications = append(report.Notifications, domain.NotificationsFrom(appt.DomainEvents())...)
		appt.ClearDomainEvents()
	}

	if report.HasFailures() {
		e.metrics.Counter(observability.MetricRecurrenceFailures, int64(len(report.Failed)),
			observability.T("provider", base.ProviderID()))
		e.logger.WarnContext(ctx, "recurring series partially booked",
			"group_id", report.GroupID,
			"provider_id", base.ProviderID(),
			"created", len(report.Created),
			"failed", len(report.Failed),
		)
	}
	return report, nil
}

// bookSibling returns a non-empty reason for an instance-level rejection and
// an error only when the context is done.
func (e *RecurrenceExpander) bookSibling(ctx context.Context, base *domain.Appointment, start, end time.Time, md sharedDomain.EventMetadata) (*domain.Appointment, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	status := domain.StatusScheduled
	if base.Status() == domain.StatusPending {
		status = domain.StatusPending
	}

	var appt *domain.Appointment
	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		window := domain.Interval{Start: start, End: end}
		blocked, err := BlockedOccurrences(txCtx, e.blocks, base.ProviderID(), window)
		if err != nil {
			return err
		}
		if len(blocked) > 0 {
			return &siblingRejection{reason: "blocked time"}
		}
		if err := e.checkOffered(txCtx, base.ProviderID(), start, end); err != nil {
			return err
		}

		code, err := e.codes()
		if err != nil {
			return err
		}
		candidate, err := domain.NewAppointment(domain.NewAppointmentParams{
			ClientID:         base.ClientID(),
			ProviderID:       base.ProviderID(),
			ServiceID:        base.ServiceID(),
			Start:            start,
			End:              end,
			Status:           status,
			Notes:            base.Notes(),
			ConfirmationCode: code,
			RecurringGroupID: base.RecurringGroupID(),
			Pattern:          base.Pattern(),
		})
		if err != nil {
			return err
		}
		if err := e.appointments.InsertIfAvailable(txCtx, candidate); err != nil {
			return err
		}
		if err := SaveEvents(txCtx, e.outboxRepo, candidate.DomainEvents(), md); err != nil {
			return err
		}
		appt = candidate
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		var rejection *siblingRejection
		switch {
		case errors.As(err, &rejection):
			return nil, rejection.reason, nil
		case errors.Is(err, domain.ErrSlotUnavailable):
			return nil, reasonConflict, nil
		default:
			return nil, err.Error(), nil
		}
	}
	return appt, "", nil
}

const (
	reasonConflict            = "conflicts with an existing appointment"
	reasonOutsideAvailability = "outside availability"
	reasonInPast              = "starts in the past"
)

// checkOffered requires start to be an available candidate of the provider's
// day, resolved in the start's own location.
func (e *RecurrenceExpander) checkOffered(ctx context.Context, providerID string, start, end time.Time) error {
	slots, err := e.resolver.ResolveSlots(ctx, ResolveSlotsRequest{
		ProviderID:      providerID,
		Date:            start,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Timezone:        start.Location().String(),
	})
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if !slot.Start.Equal(start) {
			continue
		}
		switch {
		case slot.Available:
			return nil
		case start.Before(e.resolver.now()):
			return &siblingRejection{reason: reasonInPast}
		default:
			return &siblingRejection{reason: reasonConflict}
		}
	}
	return &siblingRejection{reason: reasonOutsideAvailability}
}
