package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/solace/internal/shared/domain"
	"github.com/google/uuid"
)

// NotificationKind names a fact handed to the notification collaborator.
type NotificationKind string

const (
	NotificationCreated     NotificationKind = "created"
	NotificationCancelled   NotificationKind = "cancelled"
	NotificationRescheduled NotificationKind = "rescheduled"
)

// Notification is a delivery-agnostic fact about an appointment change.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	ClientID      string           `json:"client_id"`
	ProviderID    string           `json:"provider_id"`
	Start         time.Time        `json:"start"`
	End           time.Time        `json:"end"`
	PreviousStart *time.Time       `json:"previous_start,omitempty"`
	ReplacementID uuid.UUID        `json:"replacement_id,omitempty"`
}

// NotificationsFrom derives notification facts from domain events. Events
// that clients are not notified about are skipped. The created event of a
// reschedule replacement is folded into the rescheduled fact.
func NotificationsFrom(events []sharedDomain.DomainEvent) []Notification {
	replacements := make(map[uuid.UUID]bool)
	for _, e := range events {
		if r, ok := e.(*AppointmentRescheduled); ok {
			replacements[r.ReplacementID] = true
		}
	}

	out := make([]Notification, 0, len(events))
	for _, e := range events {
		switch ev := e.(type) {
		case *AppointmentCreated:
			if replacements[ev.AggregateID()] {
				continue
			}
			out = append(out, Notification{
				Kind:          NotificationCreated,
				AppointmentID: ev.AggregateID(),
				ClientID:      ev.ClientID,
				ProviderID:    ev.ProviderID,
				Start:         ev.StartTime,
				End:           ev.EndTime,
			})
		case *AppointmentCancelled:
			out = append(out, Notification{
				Kind:          NotificationCancelled,
				AppointmentID: ev.AggregateID(),
				ClientID:      ev.ClientID,
				ProviderID:    ev.ProviderID,
				Start:         ev.StartTime,
				End:           ev.EndTime,
			})
		case *AppointmentRescheduled:
			prev := ev.OldStartTime
			out = append(out, Notification{
				Kind:          NotificationRescheduled,
				AppointmentID: ev.AggregateID(),
				ClientID:      ev.ClientID,
				ProviderID:    ev.ProviderID,
				Start:         ev.NewStartTime,
				End:           ev.NewEndTime,
				PreviousStart: &prev,
				ReplacementID: ev.ReplacementID,
			})
		}
	}
	return out
}
