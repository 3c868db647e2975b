package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	scheduleQueries "github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/recurrence"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ParseDate parses YYYY-MM-DD as midnight in loc. Empty means today.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	date, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return date, nil
}

// ParseStart combines a YYYY-MM-DD date and an HH:MM wall clock in loc.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format, use HH:MM: %w", err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ParseRecurrence reads an RRULE value such as "FREQ=WEEKLY;COUNT=6".
func ParseRecurrence(rule string) (*domain.RecurringPattern, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, nil
	}
	p, err := recurrence.FromRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}
	return &p, nil
}

// ZoneFor returns the timezone named by tz, falling back to the practice zone.
func (a *App) ZoneFor(tz string) (*time.Location, error) {
	fallback := a.Location
	if fallback == nil {
		fallback = time.UTC
	}
	return domain.LoadLocation(tz, fallback)
}

// ResolveAppointmentID accepts an appointment id or a confirmation code.
func (a *App) ResolveAppointmentID(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if a.GetAppointmentHandler == nil {
		return uuid.Nil, fmt.Errorf("invalid appointment id: %s", ref)
	}
	dto, err := a.GetAppointmentHandler.Handle(ctx, scheduleQueries.GetAppointmentQuery{Reference: ref})
	if err != nil {
		return uuid.Nil, err
	}
	return dto.ID, nil
}

// PrintAppointment writes a short summary of a.
func PrintAppointment(w io.Writer, a *domain.Appointment, loc *time.Location) {
	start := a.StartTime().In(loc)
	fmt.Fprintf(w, "  ID:      %s\n", a.ID())
	fmt.Fprintf(w, "  Code:    %s\n", a.ConfirmationCode())
	fmt.Fprintf(w, "  When:    %s %s - %s\n", start.Format("Mon Jan 2, 2006"), start.Format(timeLayout), a.EndTime().In(loc).Format(timeLayout))
	fmt.Fprintf(w, "  Client:  %s\n", a.ClientID())
	fmt.Fprintf(w, "  Provider: %s\n", a.ProviderID())
	fmt.Fprintf(w, "  Status:  %s\n", a.Status())
}

// PrintNotifications lists the client notifications a command produced.
func PrintNotifications(w io.Writer, notes []domain.Notification) {
	for _, n := range notes {
		fmt.Fprintf(w, "  notify %s: %s (%s)\n", n.ClientID, n.Kind, n.Start.Format(time.RFC3339))
	}
}

// PrintAlternatives lists suggested starts when err is a slot conflict.
func PrintAlternatives(w io.Writer, err error, loc *time.Location) {
	var conflict *domain.SlotUnavailableError
	if !errors.As(err, &conflict) || len(conflict.Alternatives) == 0 {
		return
	}
	fmt.Fprintln(w, "Nearest available:")
	for _, s := range conflict.Alternatives {
		fmt.Fprintf(w, "  %s %s\n", s.Start.In(loc).Format(dateLayout), s.Start.In(loc).Format(timeLayout))
	}
}
