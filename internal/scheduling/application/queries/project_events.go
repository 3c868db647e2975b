package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// DefaultEventTitle is used when an appointment's service is unknown.
const DefaultEventTitle = "Appointment"

var statusColors = map[domain.AppointmentStatus]string{
	domain.StatusPending:     "#f0ad4e",
	domain.StatusScheduled:   "#0275d8",
	domain.StatusConfirmed:   "#5cb85c",
	domain.StatusCompleted:   "#6c757d",
	domain.StatusCancelled:   "#d9534f",
	domain.StatusNoShow:      "#292b2c",
	domain.StatusRescheduled: "#adb5bd",
}

// StatusColor returns the display color of a status.
func StatusColor(status domain.AppointmentStatus) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return "#6c757d"
}

// EventResource is the payload a calendar widget attaches to an event.
type EventResource struct {
	AppointmentID    uuid.UUID                `json:"appointment_id"`
	Status           string                   `json:"status"`
	Color            string                   `json:"color"`
	ConfirmationCode string                   `json:"confirmation_code"`
	ClientID         string                   `json:"client_id"`
	ProviderID       string                   `json:"provider_id"`
	ServiceID        string                   `json:"service_id"`
	RecurringGroupID *uuid.UUID               `json:"recurring_group_id,omitempty"`
	Recurrence       *domain.RecurringPattern `json:"recurrence,omitempty"`
}

// CalendarEventDTO is an appointment shaped for calendar display.
type CalendarEventDTO struct {
	ID       uuid.UUID     `json:"id"`
	Title    string        `json:"title"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Resource EventResource `json:"resource"`
}

// ProjectEventsQuery selects the appointments to project. Empty fields match everything.
type ProjectEventsQuery struct {
	ProviderID string
	ClientID   string
	Range      domain.Interval
}

// ProjectEventsHandler handles the ProjectEventsQuery.
type ProjectEventsHandler struct {
	appointments domain.AppointmentRepository
	catalog      domain.Catalog
}

// NewProjectEventsHandler creates a new ProjectEventsHandler.
func NewProjectEventsHandler(appointments domain.AppointmentRepository, catalog domain.Catalog) *ProjectEventsHandler {
	return &ProjectEventsHandler{appointments: appointments, catalog: catalog}
}

// Handle executes the ProjectEventsQuery.
func (h *ProjectEventsHandler) Handle(ctx context.Context, query ProjectEventsQuery) ([]CalendarEventDTO, error) {
	appts, err := h.appointments.ListInRange(ctx, domain.AppointmentFilter{
		ProviderID: query.ProviderID,
		ClientID:   query.ClientID,
		Range:      query.Range,
	})
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	events := make([]CalendarEventDTO, 0, len(appts))
	for _, a := range appts {
		title, ok := titles[a.ServiceID()]
		if !ok {
			title = h.title(ctx, a.ServiceID())
			titles[a.ServiceID()] = title
		}
		events = append(events, ProjectEvent(a, title))
	}
	return events, nil
}

func (h *ProjectEventsHandler) title(ctx context.Context, serviceID string) string {
	if h.catalog == nil {
		return DefaultEventTitle
	}
	service, err := h.catalog.FindService(ctx, serviceID)
	if err != nil || service.Name == "" {
		return DefaultEventTitle
	}
	return service.Name
}

// ProjectEvent shapes a single appointment.
func ProjectEvent(a *domain.Appointment, title string) CalendarEventDTO {
	if title == "" {
		title = DefaultEventTitle
	}
	return CalendarEventDTO{
		ID:    a.ID(),
		Title: title,
		Start: a.StartTime(),
		End:   a.EndTime(),
		Resource: EventResource{
			AppointmentID:    a.ID(),
			Status:           string(a.Status()),
			Color:            StatusColor(a.Status()),
			ConfirmationCode: a.ConfirmationCode(),
			ClientID:         a.ClientID(),
			ProviderID:       a.ProviderID(),
			ServiceID:        a.ServiceID(),
			RecurringGroupID: optionalID(a.RecurringGroupID()),
			Recurrence:       a.Pattern(),
		},
	}
}

// HandleOne projects a single appointment by id.
func (h *ProjectEventsHandler) HandleOne(ctx context.Context, id uuid.UUID) (CalendarEventDTO, error) {
	a, err := h.appointments.FindByID(ctx, id)
	if err != nil {
		return CalendarEventDTO{}, err
	}
	return ProjectEvent(a, h.title(ctx, a.ServiceID())), nil
}
