package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/services"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
)

// SlotDTO is one candidate start.
type SlotDTO struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ProviderID string    `json:"provider_id"`
	Available  bool      `json:"available"`
}

// ResolveSlotsQuery asks for one day of slots. The slot length comes from
// ServiceID when set, otherwise from DurationMinutes.
type ResolveSlotsQuery struct {
	ProviderID      string
	ServiceID       string
	Date            time.Time
	DurationMinutes int
	Timezone        string
	OnlyAvailable   bool
}

// ResolveSlotsHandler handles the ResolveSlotsQuery.
type ResolveSlotsHandler struct {
	resolver          *services.AvailabilityResolver
	catalog           domain.Catalog
	defaultProviderID string
}

// NewResolveSlotsHandler creates a new ResolveSlotsHandler.
func NewResolveSlotsHandler(resolver *services.AvailabilityResolver, catalog domain.Catalog, defaultProviderID string) *ResolveSlotsHandler {
	return &ResolveSlotsHandler{resolver: resolver, catalog: catalog, defaultProviderID: defaultProviderID}
}

// Handle executes the ResolveSlotsQuery.
func (h *ResolveSlotsHandler) Handle(ctx context.Context, query ResolveSlotsQuery) ([]SlotDTO, error) {
	minutes := query.DurationMinutes
	if query.ServiceID != "" {
		service, err := h.catalog.FindService(ctx, query.ServiceID)
		if err != nil {
			return nil, err
		}
		if !service.Active {
			return nil, fmt.Errorf("%w: service %q is not active", domain.ErrNotFound, query.ServiceID)
		}
		minutes = service.DurationMinutes
	}

	providerID := query.ProviderID
	if providerID == "" {
		providerID = h.defaultProviderID
	}

	slots, err := h.resolver.ResolveSlots(ctx, services.ResolveSlotsRequest{
		ProviderID:      providerID,
		Date:            query.Date,
		DurationMinutes: minutes,
		Timezone:        query.Timezone,
	})
	if err != nil {
		return nil, err
	}
	if query.OnlyAvailable {
		slots = domain.AvailableSlots(slots)
	}

	dtos := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		dtos = append(dtos, SlotDTO{Start: s.Start, End: s.End, ProviderID: s.ProviderID, Available: s.Available})
	}
	return dtos, nil
}
