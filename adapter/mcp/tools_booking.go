package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/solace/adapter/cli"
	scheduleCommands "github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

type bookingCreateInput struct {
	ServiceID  string `json:"service_id" jsonschema:"required"`
	ClientID   string `json:"client_id" jsonschema:"required"`
	Date       string `json:"date" jsonschema:"required"`
	Time       string `json:"time" jsonschema:"required"`
	ProviderID string `json:"provider_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
	RRule      string `json:"rrule,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type instanceFailureDTO struct {
	Start  string `json:"start"`
	Reason string `json:"reason"`
}

type seriesDTO struct {
	GroupID string               `json:"group_id"`
	Planned int                  `json:"planned"`
	Booked  int                  `json:"booked"`
	Failed  []instanceFailureDTO `json:"failed,omitempty"`
}

type bookingOutput struct {
	Appointment   scheduleQueries.AppointmentDTO  `json:"appointment"`
	Replaced      *scheduleQueries.AppointmentDTO `json:"replaced,omitempty"`
	Series        *seriesDTO                      `json:"series,omitempty"`
	Notifications []domain.Notification           `json:"notifications,omitempty"`
}

type referenceInput struct {
	Reference string `json:"reference" jsonschema:"required"`
}

type bookingCancelInput struct {
	Reference string `json:"reference" jsonschema:"required"`
	Reason    string `json:"reason,omitempty"`
}

type bookingRescheduleInput struct {
	Reference string `json:"reference" jsonschema:"required"`
	Date      string `json:"date" jsonschema:"required"`
	Time      string `json:"time" jsonschema:"required"`
	Timezone  string `json:"timezone,omitempty"`
}

type bookingOutcomeInput struct {
	Reference string `json:"reference" jsonschema:"required"`
	Outcome   string `json:"outcome" jsonschema:"required"` // completed or no-show
}

func registerBookingTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("booking.create").
		Description("Book an appointment, optionally as a recurring series given an RRULE").
		Handler(func(ctx context.Context, input bookingCreateInput) (*bookingOutput, error) {
			return createBooking(ctx, app, input)
		})

	srv.Tool("booking.get").
		Description("Look up an appointment by id or confirmation code").
		Handler(func(ctx context.Context, input referenceInput) (*scheduleQueries.AppointmentDTO, error) {
			if app.GetAppointmentHandler == nil {
				return nil, errStoreRequired
			}
			return app.GetAppointmentHandler.Handle(ctx, scheduleQueries.GetAppointmentQuery{Reference: input.Reference})
		})

	srv.Tool("booking.cancel").
		Description("Cancel an appointment; refused inside the cancellation notice window").
		Handler(func(ctx context.Context, input bookingCancelInput) (*bookingOutput, error) {
			return cancelBooking(ctx, app, input)
		})

	srv.Tool("booking.reschedule").
		Description("Move an appointment to a new start; the replacement gets a new confirmation code").
		Handler(func(ctx context.Context, input bookingRescheduleInput) (*bookingOutput, error) {
			return rescheduleBooking(ctx, app, input)
		})

	srv.Tool("booking.approve").
		Description("Approve a pending appointment").
		Handler(func(ctx context.Context, input referenceInput) (*bookingOutput, error) {
			return changeStatus(ctx, app, input.Reference, approveFunc(app))
		})

	srv.Tool("booking.confirm").
		Description("Record that the client confirmed attendance").
		Handler(func(ctx context.Context, input referenceInput) (*bookingOutput, error) {
			return changeStatus(ctx, app, input.Reference, confirmFunc(app))
		})

	srv.Tool("booking.outcome").
		Description("Close a held appointment as completed or no-show").
		Handler(func(ctx context.Context, input bookingOutcomeInput) (*bookingOutput, error) {
			return changeStatus(ctx, app, input.Reference, outcomeFunc(app, scheduleCommands.Outcome(input.Outcome)))
		})

	return nil
}

func createBooking(ctx context.Context, app *cli.App, input bookingCreateInput) (*bookingOutput, error) {
	if app.CreateBookingHandler == nil {
		return nil, errStoreRequired
	}
	loc, err := app.ZoneFor(input.Timezone)
	if err != nil {
		return nil, err
	}
	start, err := parseStart(input.Date, input.Time, loc)
	if err != nil {
		return nil, err
	}
	pattern, err := cli.ParseRecurrence(input.RRule)
	if err != nil {
		return nil, err
	}

	result, err := app.CreateBookingHandler.Handle(ctx, scheduleCommands.CreateBookingCommand{
		ServiceID:  input.ServiceID,
		ProviderID: input.ProviderID,
		ClientID:   input.ClientID,
		Start:      start,
		Notes:      input.Notes,
		Recurrence: pattern,
		Timezone:   input.Timezone,
	})
	var partial *domain.PartialRecurrenceError
	if err != nil && !errors.As(err, &partial) {
		return nil, withAlternatives(err, loc)
	}
	defer app.Flush(ctx)

	out := &bookingOutput{
		Appointment:   scheduleQueries.ToAppointmentDTO(result.Appointment),
		Notifications: result.Notifications,
	}
	if report := result.Recurrence; report != nil {
		series := &seriesDTO{
			GroupID: report.GroupID.String(),
			Planned: len(report.Dates),
			Booked:  len(report.Created) + 1,
		}
		for _, f := range report.Failed {
			series.Failed = append(series.Failed, instanceFailureDTO{
				Start:  f.Start.In(loc).Format(dateLayout + " " + timeLayout),
				Reason: f.Reason,
			})
		}
		out.Series = series
	}
	return out, nil
}

func cancelBooking(ctx context.Context, app *cli.App, input bookingCancelInput) (*bookingOutput, error) {
	if app.CancelAppointmentHandler == nil {
		return nil, errStoreRequired
	}
	id, err := app.ResolveAppointmentID(ctx, input.Reference)
	if err != nil {
		return nil, err
	}
	result, err := app.CancelAppointmentHandler.Handle(ctx, scheduleCommands.CancelAppointmentCommand{
		AppointmentID: id,
		Reason:        input.Reason,
	})
	if err != nil {
		return nil, err
	}
	defer app.Flush(ctx)
	return &bookingOutput{
		Appointment:   scheduleQueries.ToAppointmentDTO(result.Appointment),
		Notifications: result.Notifications,
	}, nil
}

func rescheduleBooking(ctx context.Context, app *cli.App, input bookingRescheduleInput) (*bookingOutput, error) {
	if app.RescheduleAppointmentHandler == nil {
		return nil, errStoreRequired
	}
	loc, err := app.ZoneFor(input.Timezone)
	if err != nil {
		return nil, err
	}
	newStart, err := parseStart(input.Date, input.Time, loc)
	if err != nil {
		return nil, err
	}
	id, err := app.ResolveAppointmentID(ctx, input.Reference)
	if err != nil {
		return nil, err
	}

	result, err := app.RescheduleAppointmentHandler.Handle(ctx, scheduleCommands.RescheduleAppointmentCommand{
		AppointmentID: id,
		NewStart:      newStart,
		Timezone:      input.Timezone,
	})
	if err != nil {
		return nil, withAlternatives(err, loc)
	}
	defer app.Flush(ctx)

	previous := scheduleQueries.ToAppointmentDTO(result.Previous)
	return &bookingOutput{
		Appointment:   scheduleQueries.ToAppointmentDTO(result.Replacement),
		Replaced:      &previous,
		Notifications: result.Notifications,
	}, nil
}

type statusFunc func(ctx context.Context, id uuid.UUID) (*scheduleCommands.AppointmentResult, error)

// changeStatus resolves ref and applies fn.
func changeStatus(ctx context.Context, app *cli.App, ref string, fn statusFunc) (*bookingOutput, error) {
	if app.GetAppointmentHandler == nil {
		return nil, errStoreRequired
	}
	id, err := app.ResolveAppointmentID(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := fn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("change status of %s: %w", ref, err)
	}
	defer app.Flush(ctx)
	return &bookingOutput{
		Appointment:   scheduleQueries.ToAppointmentDTO(result.Appointment),
		Notifications: result.Notifications,
	}, nil
}

func approveFunc(app *cli.App) statusFunc {
	return func(ctx context.Context, id uuid.UUID) (*scheduleCommands.AppointmentResult, error) {
		return app.ApproveAppointmentHandler.Handle(ctx, scheduleCommands.ApproveAppointmentCommand{AppointmentID: id})
	}
}

func confirmFunc(app *cli.App) statusFunc {
	return func(ctx context.Context, id uuid.UUID) (*scheduleCommands.AppointmentResult, error) {
		return app.ConfirmAppointmentHandler.Handle(ctx, scheduleCommands.ConfirmAppointmentCommand{AppointmentID: id})
	}
}

func outcomeFunc(app *cli.App, outcome scheduleCommands.Outcome) statusFunc {
	return func(ctx context.Context, id uuid.UUID) (*scheduleCommands.AppointmentResult, error) {
		return app.RecordOutcomeHandler.Handle(ctx, scheduleCommands.RecordOutcomeCommand{AppointmentID: id, Outcome: outcome})
	}
}
