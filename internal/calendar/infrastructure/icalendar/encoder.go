// Package icalendar renders projected appointments as RFC 5545 calendars.
package icalendar

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/scheduling/infrastructure/recurrence"
)

// Custom properties carried on every exported event.
const (
	PropXSolace        = "X-SOLACE"
	PropXSolaceStatus  = "X-SOLACE-STATUS"
	PropXSolaceGroup   = "X-SOLACE-GROUP"
	PropXSolaceRRule   = "X-SOLACE-RRULE"
	DefaultProductID   = "-//Solace//Scheduling//EN"
	statusTentative    = "TENTATIVE"
	statusConfirmed    = "CONFIRMED"
	statusCancelledCal = "CANCELLED"
)

// Encoder converts calendar events to iCalendar.
type Encoder struct {
	productID string
	now       func() time.Time
	logger    *slog.Logger
}

// NewEncoder creates an encoder. A nil clock uses time.Now.
func NewEncoder(now func() time.Time, logger *slog.Logger) *Encoder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{productID: DefaultProductID, now: now, logger: logger}
}

// Encode writes events as a single VCALENDAR.
func (e *Encoder) Encode(w io.Writer, events []queries.CalendarEventDTO) error {
	if err := ical.NewEncoder(w).Encode(e.Calendar(events...)); err != nil {
		return fmt.Errorf("encode icalendar: %w", err)
	}
	return nil
}

// Calendar wraps events in a VCALENDAR.
func (e *Encoder) Calendar(events ...queries.CalendarEventDTO) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, e.productID)
	for _, ev := range events {
		cal.Children = append(cal.Children, e.Event(ev).Component)
	}
	return cal
}

// Event converts one projected appointment into a VEVENT. Recurrence is
// carried as X-SOLACE-RRULE rather than RRULE because every instance of a
// series is exported as its own event.
func (e *Encoder) Event(ev queries.CalendarEventDTO) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, ev.ID.String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, e.now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	event.Props.SetText(ical.PropSummary, ev.Title)
	event.Props.SetText(ical.PropStatus, calendarStatus(domain.AppointmentStatus(ev.Resource.Status)))
	event.Props.SetText(ical.PropDescription, fmt.Sprintf("Confirmation code: %s\nProvider: %s",
		ev.Resource.ConfirmationCode, ev.Resource.ProviderID))

	setCustom(event, PropXSolace, "1")
	setCustom(event, PropXSolaceStatus, ev.Resource.Status)
	if ev.Resource.RecurringGroupID != nil {
		setCustom(event, PropXSolaceGroup, ev.Resource.RecurringGroupID.String())
	}
	if ev.Resource.Recurrence != nil {
		rule, err := recurrence.RRuleString(*ev.Resource.Recurrence, ev.Start)
		if err != nil {
			e.logger.Warn("skipping recurrence annotation", "appointment_id", ev.ID, "error", err)
		} else {
			setCustom(event, PropXSolaceRRule, rule)
		}
	}
	return event
}

func setCustom(event *ical.Event, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	event.Props[name] = []ical.Prop{*prop}
}

func calendarStatus(status domain.AppointmentStatus) string {
	switch status {
	case domain.StatusPending:
		return statusTentative
	case domain.StatusCancelled, domain.StatusRescheduled:
		return statusCancelledCal
	default:
		return statusConfirmed
	}
}

// IsSolaceEvent reports whether cal contains an event written by Encoder.
func IsSolaceEvent(cal *ical.Calendar) bool {
	if cal == nil {
		return false
	}
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if props := child.Props[PropXSolace]; len(props) > 0 && props[0].Value == "1" {
			return true
		}
	}
	return false
}
