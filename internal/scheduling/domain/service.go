package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Service is a bookable offering of the practice.
type Service struct {
	ID                   string
	Name                 string
	DurationMinutes      int
	Price                decimal.Decimal
	Category             string
	Active               bool
	MaxParticipants      *int
	RequiresConsultation bool
}

// Duration returns the service length.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Validate checks the invariants administrators are expected to uphold.
func (s Service) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: service id is required", ErrInvalidArgument)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: service %s duration must be positive", ErrInvalidArgument, s.ID)
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("%w: service %s price must not be negative", ErrInvalidArgument, s.ID)
	}
	if s.MaxParticipants != nil && *s.MaxParticipants < 1 {
		return fmt.Errorf("%w: service %s max participants must be at least 1", ErrInvalidArgument, s.ID)
	}
	return nil
}

// InitialStatus is the status a new booking of this service starts in.
func (s Service) InitialStatus() AppointmentStatus {
	if s.RequiresConsultation {
		return StatusPending
	}
	return StatusScheduled
}
