package mcp

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/solace/adapter/cli"
	calendarApp "github.com/felixgeelhaar/solace/internal/calendar/application"
	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
)

type calendarRangeInput struct {
	ProviderID string `json:"provider_id,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

type calendarExportOutput struct {
	Count    int    `json:"count"`
	ICS      string `json:"ics"`
	MimeType string `json:"mime_type"`
}

type calendarPushInput struct {
	ProviderID    string `json:"provider_id,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	DeleteMissing bool   `json:"delete_missing,omitempty"`
}

func registerCalendarTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("calendar.events").
		Description("Project appointments as calendar events with status colors").
		Handler(func(ctx context.Context, input calendarRangeInput) ([]scheduleQueries.CalendarEventDTO, error) {
			if app.ProjectEventsHandler == nil {
				return nil, errStoreRequired
			}
			query, err := projectionQuery(app, input)
			if err != nil {
				return nil, err
			}
			return app.ProjectEventsHandler.Handle(ctx, query)
		})

	srv.Tool("calendar.export").
		Description("Export appointments as iCalendar text").
		Handler(func(ctx context.Context, input calendarRangeInput) (*calendarExportOutput, error) {
			return exportCalendar(ctx, app, input)
		})

	srv.Tool("calendar.push").
		Description("Upsert appointments into the configured CalDAV calendar").
		Handler(func(ctx context.Context, input calendarPushInput) (*calendarApp.PushResult, error) {
			if app.CalendarService == nil {
				return nil, errStoreRequired
			}
			query, err := projectionQuery(app, calendarRangeInput{ProviderID: input.ProviderID, From: input.From, To: input.To})
			if err != nil {
				return nil, err
			}
			return app.CalendarService.Push(ctx, query, calendarApp.PushOptions{DeleteMissing: input.DeleteMissing})
		})

	return nil
}

// projectionQuery builds a query whose range covers From through To inclusive.
func projectionQuery(app *cli.App, input calendarRangeInput) (scheduleQueries.ProjectEventsQuery, error) {
	q := scheduleQueries.ProjectEventsQuery{ProviderID: input.ProviderID, ClientID: input.ClientID}
	if input.From == "" && input.To == "" {
		return q, nil
	}
	if input.From == "" || input.To == "" {
		return q, errors.New("from and to must be given together")
	}
	from, err := parseDate(input.From, app.Location)
	if err != nil {
		return q, err
	}
	to, err := parseDate(input.To, app.Location)
	if err != nil {
		return q, err
	}
	r, err := domain.NewInterval(from, to.Add(24*time.Hour))
	if err != nil {
		return q, err
	}
	q.Range = r
	return q, nil
}

func exportCalendar(ctx context.Context, app *cli.App, input calendarRangeInput) (*calendarExportOutput, error) {
	if app.CalendarService == nil {
		return nil, errStoreRequired
	}
	query, err := projectionQuery(app, input)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	n, err := app.CalendarService.Export(ctx, &buf, query)
	if err != nil {
		return nil, err
	}
	return &calendarExportOutput{Count: n, ICS: buf.String(), MimeType: "text/calendar"}, nil
}
