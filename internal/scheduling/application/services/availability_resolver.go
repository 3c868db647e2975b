package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/google/uuid"
)

// ResolveSlotsRequest asks for the offerable slots of one provider on one day.
type ResolveSlotsRequest struct {
	ProviderID string
	// Date selects the calendar day as written in its own location; the clock
	// time is ignored.
	Date            time.Time
	DurationMinutes int
	// Timezone is an IANA name; empty means the practice timezone.
	Timezone string
	// ExcludeAppointmentIDs are ignored as conflicts, e.g. the appointment being moved.
	ExcludeAppointmentIDs []uuid.UUID
}

// AvailabilityResolver turns rules, blocked time and bookings into slots.
type AvailabilityResolver struct {
	catalog      domain.Catalog
	appointments domain.AppointmentRepository
	blocks       domain.BlockedIntervalRepository
	location     *time.Location
	now          Clock
	metrics      observability.Metrics
	logger       *slog.Logger
}

// NewAvailabilityResolver creates a resolver. location is the practice timezone.
func NewAvailabilityResolver(
	catalog domain.Catalog,
	appointments domain.AppointmentRepository,
	blocks domain.BlockedIntervalRepository,
	location *time.Location,
	now Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *AvailabilityResolver {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = SystemClock
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityResolver{
		catalog:      catalog,
		appointments: appointments,
		blocks:       blocks,
		location:     location,
		now:          now,
		metrics:      metrics,
		logger:       logger,
	}
}

// Location returns the practice timezone.
func (r *AvailabilityResolver) Location() *time.Location { return r.location }

// ResolveSlots returns every candidate slot of the day ordered by start.
// Slots overlapping a blocking appointment or blocked time, or starting
// before now, are returned with Available false.
func (r *AvailabilityResolver) ResolveSlots(ctx context.Context, req ResolveSlotsRequest) ([]domain.TimeSlot, error) {
	started := time.Now()
	if req.ProviderID == "" {
		return nil, fmt.Errorf("%w: provider id is required", domain.ErrInvalidArgument)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidArgument)
	}
	duration, err := domain.DurationFromMinutes(req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	loc, err := domain.LoadLocation(req.Timezone, r.location)
	if err != nil {
		return nil, err
	}

	y, m, d := req.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	rules, err := r.catalog.ListRules(ctx, req.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}

	candidates := make([]domain.TimeSlot, 0)
	seen := make(map[int64]bool)
	for _, rule := range rules {
		if !rule.AppliesOn(day) {
			continue
		}
		window := rule.Window(day, loc)
		starts, err := domain.SlotGrid(window, domain.SlotIncrement)
		if err != nil {
			return nil, err
		}
		for _, start := range starts {
			end := start.Add(duration)
			if end.After(window.End) {
				break
			}
			// Overlapping rules offer the same start once.
			if seen[start.UnixNano()] {
				continue
			}
			seen[start.UnixNano()] = true
			candidates = append(candidates, domain.TimeSlot{
				Start:      start,
				End:        end,
				ProviderID: req.ProviderID,
				Available:  true,
			})
		}
	}
	if len(candidates) == 0 {
		return candidates, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Start.Before(candidates[j].Start) })

	span := domain.Interval{Start: candidates[0].Start, End: candidates[0].End}
	for _, c := range candidates[1:] {
		if c.End.After(span.End) {
			span.End = c.End
		}
	}

	busy, err := r.busyIntervals(ctx, req, span)
	if err != nil {
		return nil, err
	}

	now := r.now()
	available := 0
	for i := range candidates {
		c := &candidates[i]
		if c.Start.Before(now) {
			c.Available = false
			continue
		}
		for _, b := range busy {
			if c.Interval().Overlaps(b) {
				c.Available = false
				break
			}
		}
		if c.Available {
			available++
		}
	}

	r.metrics.Counter(observability.MetricSlotsResolved, int64(available), observability.T("provider", req.ProviderID))
	r.metrics.Timing(observability.MetricResolveDuration, time.Since(started))
	r.logger.DebugContext(ctx, "slots resolved",
		"provider_id", req.ProviderID,
		"date", day.Format(time.DateOnly),
		"candidates", len(candidates),
		"available", available,
	)
	return candidates, nil
}

func (r *AvailabilityResolver) busyIntervals(ctx context.Context, req ResolveSlotsRequest, span domain.Interval) ([]domain.Interval, error) {
	appts, err := r.appointments.ListBlocking(ctx, req.ProviderID, span)
	if err != nil {
		return nil, fmt.Errorf("list blocking appointments: %w", err)
	}
	excluded := make(map[uuid.UUID]bool, len(req.ExcludeAppointmentIDs))
	for _, id := range req.ExcludeAppointmentIDs {
		excluded[id] = true
	}

	busy := make([]domain.Interval, 0, len(appts))
	for _, a := range appts {
		if !excluded[a.ID()] {
			busy = append(busy, a.Interval())
		}
	}

	blocked, err := BlockedOccurrences(ctx, r.blocks, req.ProviderID, span)
	if err != nil {
		return nil, err
	}
	return append(busy, blocked...), nil
}

// BlockedOccurrences expands the provider's blocked time overlapping window.
func BlockedOccurrences(ctx context.Context, repo domain.BlockedIntervalRepository, providerID string, window domain.Interval) ([]domain.Interval, error) {
	blocks, err := repo.ListForProvider(ctx, providerID, window)
	if err != nil {
		return nil, fmt.Errorf("list blocked intervals: %w", err)
	}
	var out []domain.Interval
	for _, b := range blocks {
		occ, err := b.Occurrences(window)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}
	return out, nil
}

// Alternatives picks up to limit available slots nearest to requested,
// returned in start order.
func Alternatives(slots []domain.TimeSlot, requested time.Time, limit int) []domain.TimeSlot {
	free := make([]domain.TimeSlot, 0, limit)
	for _, s := range domain.AvailableSlots(slots) {
		if !s.Start.Equal(requested) {
			free = append(free, s)
		}
	}
	sort.SliceStable(free, func(i, j int) bool {
		return absDuration(free[i].Start.Sub(requested)) < absDuration(free[j].Start.Sub(requested))
	})
	if len(free) > limit {
		free = free[:limit]
	}
	sort.Slice(free, func(i, j int) bool { return free[i].Start.Before(free[j].Start) })
	return free
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
