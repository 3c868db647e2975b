package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
)

// upcomingWindow is how far ahead the upcoming appointments resource looks.
const upcomingWindow = 14 * 24 * time.Hour

// RegisterResources registers MCP resources that expose practice data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("solace://services").
		Name("Services").
		Description("The service catalog with durations and prices").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			services, err := listServices(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, services)
		})

	srv.Resource("solace://appointments/upcoming").
		Name("Upcoming appointments").
		Description("Appointments starting in the next two weeks").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ProjectEventsHandler == nil {
				return nil, errStoreRequired
			}
			now := time.Now()
			events, err := app.ProjectEventsHandler.Handle(ctx, scheduleQueries.ProjectEventsQuery{
				Range: domain.Interval{Start: now, End: now.Add(upcomingWindow)},
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, events)
		})

	srv.Resource("solace://calendar.ics").
		Name("Practice calendar").
		Description("Every appointment as iCalendar data").
		MimeType("text/calendar").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.CalendarService == nil {
				return nil, errStoreRequired
			}
			var buf bytes.Buffer
			if _, err := app.CalendarService.Export(ctx, &buf, scheduleQueries.ProjectEventsQuery{}); err != nil {
				return nil, err
			}
			return &mcp.ResourceContent{URI: uri, MimeType: "text/calendar", Text: buf.String()}, nil
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
