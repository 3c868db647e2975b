package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/solace/internal/calendar/application"
	"github.com/felixgeelhaar/solace/internal/calendar/infrastructure/icalendar"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
)

// ErrNoCalendars is returned when the account exposes no calendar collection.
var ErrNoCalendars = errors.New("no calendars found")

// Client is the subset of the CalDAV client used by Pusher.
type Client interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	GetCalendarObject(ctx context.Context, path string) (*caldav.CalendarObject, error)
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, path string) error
}

// Pusher writes appointments into a CalDAV calendar (Nextcloud, Fastmail, iCloud).
type Pusher struct {
	client       Client
	calendarPath string
	encoder      *icalendar.Encoder
	logger       *slog.Logger
}

// NewPusher creates a pusher authenticating with basic auth.
func NewPusher(baseURL, username, password string, encoder *icalendar.Encoder, logger *slog.Logger) (*Pusher, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, username, password), baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return NewPusherWithClient(client, encoder, logger), nil
}

// NewPusherWithClient creates a pusher over an existing client.
func NewPusherWithClient(client Client, encoder *icalendar.Encoder, logger *slog.Logger) *Pusher {
	if logger == nil {
		logger = slog.Default()
	}
	if encoder == nil {
		encoder = icalendar.NewEncoder(nil, logger)
	}
	return &Pusher{client: client, encoder: encoder, logger: logger}
}

// WithCalendarPath pins the target calendar instead of discovering one.
func (p *Pusher) WithCalendarPath(path string) *Pusher {
	p.calendarPath = path
	return p
}

// Push upserts one calendar object per event, keyed by appointment id.
func (p *Pusher) Push(ctx context.Context, events []queries.CalendarEventDTO, opts application.PushOptions) (*application.PushResult, error) {
	calPath, err := p.findCalendarPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	result := &application.PushResult{}
	keep := make(map[string]struct{}, len(events))
	for _, ev := range events {
		objectPath := eventPath(calPath, ev)
		keep[objectPath] = struct{}{}

		updated, err := p.upsert(ctx, objectPath, p.encoder.Calendar(ev))
		if err != nil {
			p.logger.Warn("caldav push failed", "event_path", objectPath, "error", err)
			result.Failed++
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if opts.DeleteMissing {
		deleted, err := p.deleteMissing(ctx, calPath, keep)
		if err != nil {
			p.logger.Warn("caldav delete missing failed", "error", err)
		} else {
			result.Deleted = deleted
		}
	}
	return result, nil
}

func eventPath(calPath string, ev queries.CalendarEventDTO) string {
	if !strings.HasSuffix(calPath, "/") {
		calPath += "/"
	}
	return calPath + ev.ID.String() + ".ics"
}

func (p *Pusher) findCalendarPath(ctx context.Context) (string, error) {
	if p.calendarPath != "" {
		return p.calendarPath, nil
	}

	principal, err := p.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := p.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := p.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", ErrNoCalendars
	}
	p.calendarPath = cals[0].Path
	return p.calendarPath, nil
}

func (p *Pusher) upsert(ctx context.Context, objectPath string, cal *ical.Calendar) (bool, error) {
	_, err := p.client.GetCalendarObject(ctx, objectPath)
	exists := err == nil

	if _, err := p.client.PutCalendarObject(ctx, objectPath, cal); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Pusher) deleteMissing(ctx context.Context, calPath string, keep map[string]struct{}) (int, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name:  "VEVENT",
				Props: []string{"UID", icalendar.PropXSolace},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  "VCALENDAR",
			Comps: []caldav.CompFilter{{Name: "VEVENT"}},
		},
	}

	objects, err := p.client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if !icalendar.IsSolaceEvent(obj.Data) {
			continue
		}
		if _, ok := keep[obj.Path]; ok {
			continue
		}
		if err := p.client.RemoveAll(ctx, obj.Path); err != nil {
			p.logger.Warn("failed to delete caldav event", "path", obj.Path, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
