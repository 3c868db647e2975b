// Package application exports projected appointments to external calendars.
package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/solace/internal/scheduling/application/queries"
	"github.com/google/uuid"
)

// PushResult describes the outcome of a push run.
type PushResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// PushOptions tunes a push run.
type PushOptions struct {
	// DeleteMissing removes previously pushed events absent from the run.
	DeleteMissing bool
}

// Pusher writes events into an external calendar.
type Pusher interface {
	Push(ctx context.Context, events []queries.CalendarEventDTO, opts PushOptions) (*PushResult, error)
}

// Encoder serializes events into a calendar document.
type Encoder interface {
	Encode(w io.Writer, events []queries.CalendarEventDTO) error
}

// Projector supplies calendar events.
type Projector interface {
	Handle(ctx context.Context, query queries.ProjectEventsQuery) ([]queries.CalendarEventDTO, error)
	HandleOne(ctx context.Context, id uuid.UUID) (queries.CalendarEventDTO, error)
}

// Service exports appointments as iCalendar documents and pushes them to CalDAV.
type Service struct {
	projector Projector
	encoder   Encoder
	pusher    Pusher
	logger    *slog.Logger
}

// NewService creates a Service. pusher may be nil when no remote calendar is configured.
func NewService(projector Projector, encoder Encoder, pusher Pusher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{projector: projector, encoder: encoder, pusher: pusher, logger: logger}
}

// PushEnabled reports whether a remote calendar is configured.
func (s *Service) PushEnabled() bool { return s.pusher != nil }

// Export writes the selected appointments to w and returns how many were written.
func (s *Service) Export(ctx context.Context, w io.Writer, query queries.ProjectEventsQuery) (int, error) {
	events, err := s.projector.Handle(ctx, query)
	if err != nil {
		return 0, err
	}
	if err := s.encoder.Encode(w, events); err != nil {
		return 0, err
	}
	return len(events), nil
}

// Push sends the selected appointments to the remote calendar.
func (s *Service) Push(ctx context.Context, query queries.ProjectEventsQuery, opts PushOptions) (*PushResult, error) {
	if s.pusher == nil {
		return nil, ErrPushDisabled
	}
	events, err := s.projector.Handle(ctx, query)
	if err != nil {
		return nil, err
	}
	result, err := s.pusher.Push(ctx, events, opts)
	if err != nil {
		return nil, fmt.Errorf("push calendar: %w", err)
	}
	s.logger.Info("calendar pushed",
		"events", len(events),
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)
	return result, nil
}

// PushAppointment sends the current state of one appointment.
func (s *Service) PushAppointment(ctx context.Context, id uuid.UUID) (*PushResult, error) {
	if s.pusher == nil {
		return nil, ErrPushDisabled
	}
	event, err := s.projector.HandleOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.pusher.Push(ctx, []queries.CalendarEventDTO{event}, PushOptions{})
}
