package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/solace/adapter/cli"
	scheduleCommands "github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
)

type slotsInput struct {
	Date            string `json:"date" jsonschema:"required"`
	ServiceID       string `json:"service_id,omitempty"`
	ProviderID      string `json:"provider_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	IncludeTaken    bool   `json:"include_taken,omitempty"`
}

type serviceDTO struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	DurationMinutes      int    `json:"duration_minutes"`
	Price                string `json:"price"`
	Category             string `json:"category,omitempty"`
	RequiresConsultation bool   `json:"requires_consultation"`
}

type blockInput struct {
	ProviderID string `json:"provider_id,omitempty"`
	Date       string `json:"date" jsonschema:"required"`
	Start      string `json:"start" jsonschema:"required"`
	End        string `json:"end" jsonschema:"required"`
	Reason     string `json:"reason,omitempty"`
	RRule      string `json:"rrule,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type blockOutput struct {
	BlockID   string                           `json:"block_id"`
	Conflicts []scheduleQueries.AppointmentDTO `json:"conflicts,omitempty"`
}

type unblockInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
}

func registerAvailabilityTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("slots.resolve").
		Description("List bookable slots for one provider and day").
		Handler(func(ctx context.Context, input slotsInput) ([]scheduleQueries.SlotDTO, error) {
			return resolveSlots(ctx, app, input)
		})

	srv.Tool("services.list").
		Description("List the service catalog").
		Handler(func(ctx context.Context, input struct{}) ([]serviceDTO, error) {
			return listServices(ctx, app)
		})

	srv.Tool("availability.block").
		Description("Block provider time; omit provider_id to block every provider").
		Handler(func(ctx context.Context, input blockInput) (*blockOutput, error) {
			return blockTime(ctx, app, input)
		})

	srv.Tool("availability.unblock").
		Description("Remove a time block").
		Handler(func(ctx context.Context, input unblockInput) (map[string]string, error) {
			if app.UnblockTimeHandler == nil {
				return nil, errStoreRequired
			}
			id, err := parseUUID(input.BlockID)
			if err != nil {
				return nil, err
			}
			if err := app.UnblockTimeHandler.Handle(ctx, scheduleCommands.UnblockTimeCommand{BlockID: id}); err != nil {
				return nil, err
			}
			return map[string]string{"status": "removed", "block_id": id.String()}, nil
		})

	return nil
}

func resolveSlots(ctx context.Context, app *cli.App, input slotsInput) ([]scheduleQueries.SlotDTO, error) {
	if app.ResolveSlotsHandler == nil {
		return nil, errStoreRequired
	}
	loc, err := app.ZoneFor(input.Timezone)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, loc)
	if err != nil {
		return nil, err
	}
	return app.ResolveSlotsHandler.Handle(ctx, scheduleQueries.ResolveSlotsQuery{
		ProviderID:      input.ProviderID,
		ServiceID:       input.ServiceID,
		Date:            date,
		DurationMinutes: input.DurationMinutes,
		Timezone:        input.Timezone,
		OnlyAvailable:   !input.IncludeTaken,
	})
}

func listServices(ctx context.Context, app *cli.App) ([]serviceDTO, error) {
	if app == nil || app.Catalog == nil {
		return []serviceDTO{}, nil
	}
	services, err := app.Catalog.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]serviceDTO, 0, len(services))
	for _, s := range services {
		out = append(out, serviceDTO{
			ID:                   s.ID,
			Name:                 s.Name,
			DurationMinutes:      s.DurationMinutes,
			Price:                s.Price.StringFixed(2),
			Category:             s.Category,
			RequiresConsultation: s.RequiresConsultation,
		})
	}
	return out, nil
}

func blockTime(ctx context.Context, app *cli.App, input blockInput) (*blockOutput, error) {
	if app.BlockTimeHandler == nil {
		return nil, errStoreRequired
	}
	loc, err := app.ZoneFor(input.Timezone)
	if err != nil {
		return nil, err
	}
	start, err := parseStart(input.Date, input.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := parseStart(input.Date, input.End, loc)
	if err != nil {
		return nil, err
	}
	pattern, err := cli.ParseRecurrence(input.RRule)
	if err != nil {
		return nil, err
	}

	result, err := app.BlockTimeHandler.Handle(ctx, scheduleCommands.BlockTimeCommand{
		ProviderID: input.ProviderID,
		Start:      start,
		End:        end,
		Reason:     input.Reason,
		Recurrence: pattern,
		Timezone:   input.Timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("block time: %w", err)
	}

	out := &blockOutput{BlockID: result.Block.ID.String()}
	for _, a := range result.Conflicts {
		out.Conflicts = append(out.Conflicts, scheduleQueries.ToAppointmentDTO(a))
	}
	return out, nil
}
