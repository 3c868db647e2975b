package cli

import (
	"context"
	"time"

	internalApp "github.com/felixgeelhaar/solace/internal/app"
	calendarApp "github.com/felixgeelhaar/solace/internal/calendar/application"
	scheduleCommands "github.com/felixgeelhaar/solace/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Booking Command Handlers
	CreateBookingHandler         *scheduleCommands.CreateBookingHandler
	CancelAppointmentHandler     *scheduleCommands.CancelAppointmentHandler
	RescheduleAppointmentHandler *scheduleCommands.RescheduleAppointmentHandler
	ApproveAppointmentHandler    *scheduleCommands.ApproveAppointmentHandler
	ConfirmAppointmentHandler    *scheduleCommands.ConfirmAppointmentHandler
	RecordOutcomeHandler         *scheduleCommands.RecordOutcomeHandler

	// Availability Command Handlers
	BlockTimeHandler   *scheduleCommands.BlockTimeHandler
	UnblockTimeHandler *scheduleCommands.UnblockTimeHandler

	// Query Handlers
	ResolveSlotsHandler   *scheduleQueries.ResolveSlotsHandler
	GetAppointmentHandler *scheduleQueries.GetAppointmentHandler
	ProjectEventsHandler  *scheduleQueries.ProjectEventsHandler

	// Calendar export and CalDAV push
	CalendarService *calendarApp.Service

	Catalog  domain.Catalog
	Health   *observability.HealthRegistry
	Location *time.Location

	// DefaultProviderID is used when a command omits --provider.
	DefaultProviderID string

	drain func(ctx context.Context)
}

// NewApp creates a CLI application over a wired container.
func NewApp(c *internalApp.Container) *App {
	a := &App{
		CreateBookingHandler:         c.CreateBookingHandler,
		CancelAppointmentHandler:     c.CancelAppointmentHandler,
		RescheduleAppointmentHandler: c.RescheduleAppointmentHandler,
		ApproveAppointmentHandler:    c.ApproveAppointmentHandler,
		ConfirmAppointmentHandler:    c.ConfirmAppointmentHandler,
		RecordOutcomeHandler:         c.RecordOutcomeHandler,
		BlockTimeHandler:             c.BlockTimeHandler,
		UnblockTimeHandler:           c.UnblockTimeHandler,
		ResolveSlotsHandler:          c.ResolveSlotsHandler,
		GetAppointmentHandler:        c.GetAppointmentHandler,
		ProjectEventsHandler:         c.ProjectEventsHandler,
		CalendarService:              c.CalendarService,
		Health:                       c.Health,
		Location:                     time.UTC,
		drain:                        c.DrainOutbox,
	}
	if c.Catalog != nil {
		a.Catalog = c.Catalog
	}
	if c.Config != nil {
		a.DefaultProviderID = c.Config.DefaultProviderID
		a.Location = c.Config.Location()
	}
	return a
}

// Flush relays events written by the last command. Subscribers such as the
// CalDAV sync only run once the outbox has been drained.
func (a *App) Flush(ctx context.Context) {
	if a.drain != nil {
		a.drain(ctx)
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
