package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BlockTimeCommand removes time from availability.
type BlockTimeCommand struct {
	// ProviderID empty blocks every provider.
	ProviderID string
	Start      time.Time
	End        time.Time
	Reason     string
	Recurrence *domain.RecurringPattern
	Timezone   string
}

// BlockTimeResult carries the stored block and any bookings it now overlaps.
// Existing bookings are left untouched.
type BlockTimeResult struct {
	Block     *domain.BlockedInterval
	Conflicts []*domain.Appointment
}

// BlockTimeHandler stores blocked intervals.
type BlockTimeHandler struct {
	deps Deps
}

// NewBlockTimeHandler creates the handler.
func NewBlockTimeHandler(deps Deps) *BlockTimeHandler {
	return &BlockTimeHandler{deps: deps.withDefaults()}
}

func (h *BlockTimeHandler) Handle(ctx context.Context, cmd BlockTimeCommand) (*BlockTimeResult, error) {
	d := h.deps
	tz := cmd.Timezone
	if tz == "" {
		tz = d.Location.String()
	}
	block, err := domain.NewBlockedInterval(cmd.ProviderID, cmd.Start, cmd.End, cmd.Reason, cmd.Recurrence, tz)
	if err != nil {
		return nil, err
	}

	// A provider block is saved under the booking lock so a concurrent
	// booking either sees it or is reported as a conflict. Global blocks
	// span every provider and take no lock.
	if block.ProviderID != "" {
		unlock, err := d.Locker.Lock(ctx, services.ProviderLockKey(block.ProviderID))
		if err != nil {
			return nil, fmt.Errorf("lock provider %s: %w", block.ProviderID, err)
		}
		defer unlock()
	}

	if err := d.Blocks.Save(ctx, block); err != nil {
		return nil, fmt.Errorf("save blocked interval: %w", err)
	}
	conflicts, err := h.conflicts(ctx, block)
	if err != nil {
		return nil, err
	}

	d.Logger.InfoContext(ctx, "time blocked",
		"block_id", block.ID,
		"provider_id", block.ProviderID,
		"start", block.Start,
		"end", block.End,
		"recurring", block.Recurrence != nil,
		"conflicts", len(conflicts),
	)
	return &BlockTimeResult{Block: block, Conflicts: conflicts}, nil
}

func (h *BlockTimeHandler) conflicts(ctx context.Context, block *domain.BlockedInterval) ([]*domain.Appointment, error) {
	span := domain.Interval{Start: block.Start, End: block.End}
	occurrences := []domain.Interval{span}
	if block.Recurrence != nil {
		// Bounded by the series cap; open-ended series are checked for a year.
		span.End = block.Start.AddDate(1, 0, 0)
		var err error
		occurrences, err = block.Occurrences(span)
		if err != nil {
			return nil, err
		}
	}
	// An empty provider lists every provider's bookings.
	appts, err := h.deps.Appointments.ListInRange(ctx, domain.AppointmentFilter{
		ProviderID: block.ProviderID,
		Range:      span,
		Statuses:   domain.BlockingStatuses,
	})
	if err != nil {
		return nil, err
	}
	var out []*domain.Appointment
	for _, a := range appts {
		for _, occ := range occurrences {
			if a.Interval().Overlaps(occ) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

// UnblockTimeCommand deletes a blocked interval.
type UnblockTimeCommand struct {
	BlockID uuid.UUID
}

// UnblockTimeHandler removes blocked intervals.
type UnblockTimeHandler struct {
	deps Deps
}

// NewUnblockTimeHandler creates the handler.
func NewUnblockTimeHandler(deps Deps) *UnblockTimeHandler {
	return &UnblockTimeHandler{deps: deps.withDefaults()}
}

func (h *UnblockTimeHandler) Handle(ctx context.Context, cmd UnblockTimeCommand) error {
	if err := h.deps.Blocks.Delete(ctx, cmd.BlockID); err != nil {
		return err
	}
	h.deps.Logger.InfoContext(ctx, "time unblocked", "block_id", cmd.BlockID)
	return nil
}
