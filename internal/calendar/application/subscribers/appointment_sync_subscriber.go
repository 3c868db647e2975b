// Package subscribers reacts to scheduling events.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/solace/internal/calendar/application"
	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// RoutingPattern matches every appointment event.
const RoutingPattern = "scheduling.appointment.*"

// AppointmentPusher pushes the current state of one appointment.
type AppointmentPusher interface {
	PushEnabled() bool
	PushAppointment(ctx context.Context, id uuid.UUID) (*application.PushResult, error)
}

// AppointmentSyncSubscriber mirrors appointment changes into the remote calendar.
type AppointmentSyncSubscriber struct {
	pusher  AppointmentPusher
	logger  *slog.Logger
	enabled bool
}

// NewAppointmentSyncSubscriber creates a subscriber.
func NewAppointmentSyncSubscriber(pusher AppointmentPusher, logger *slog.Logger) *AppointmentSyncSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentSyncSubscriber{pusher: pusher, logger: logger, enabled: true}
}

// SetEnabled enables or disables the subscriber.
func (s *AppointmentSyncSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

type appointmentPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ReplacementID uuid.UUID `json:"replacement_id"`
}

// Handle matches eventbus.Handler. Undecodable payloads and vanished
// appointments are logged and acknowledged; push failures are returned so
// the outbox retries.
func (s *AppointmentSyncSubscriber) Handle(ctx context.Context, routingKey string, payload []byte) error {
	if !s.enabled || s.pusher == nil || !s.pusher.PushEnabled() {
		s.logger.Debug("calendar sync disabled, skipping event", "routing_key", routingKey)
		return nil
	}

	var p appointmentPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.AppointmentID == uuid.Nil {
		s.logger.Error("failed to decode appointment payload", "routing_key", routingKey, "error", err)
		return nil
	}

	ids := []uuid.UUID{p.AppointmentID}
	if routingKey == domain.RoutingKeyAppointmentRescheduled && p.ReplacementID != uuid.Nil {
		ids = append(ids, p.ReplacementID)
	}
	for _, id := range ids {
		result, err := s.pusher.PushAppointment(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("appointment vanished before calendar sync", "appointment_id", id)
			continue
		}
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("calendar sync of appointment %s failed", id)
		}
		s.logger.Debug("appointment synced to calendar", "appointment_id", id, "routing_key", routingKey)
	}
	return nil
}
