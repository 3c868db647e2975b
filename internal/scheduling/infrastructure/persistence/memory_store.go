package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/google/uuid"
)

// MemoryAppointmentRepository keeps appointments in process. Its write lock
// makes InsertIfAvailable and Reschedule exclusive.
type MemoryAppointmentRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]domain.AppointmentState
	codes map[string]uuid.UUID
}

// NewMemoryAppointmentRepository creates an empty repository.
func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{
		byID:  make(map[uuid.UUID]domain.AppointmentState),
		codes: make(map[string]uuid.UUID),
	}
}

func (r *MemoryAppointmentRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: appointment %s", domain.ErrNotFound, id)
	}
	return domain.RehydrateAppointment(s), nil
}

func (r *MemoryAppointmentRepository) FindByConfirmationCode(_ context.Context, code string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, fmt.Errorf("%w: confirmation code %s", domain.ErrNotFound, code)
	}
	return domain.RehydrateAppointment(r.byID[id]), nil
}

func (r *MemoryAppointmentRepository) ListBlocking(_ context.Context, providerID string, window domain.Interval) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Appointment
	for _, s := range r.byID {
		if s.ProviderID == providerID && s.Status.IsBlocking() && stateInterval(s).Overlaps(window) {
			out = append(out, domain.RehydrateAppointment(s))
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *MemoryAppointmentRepository) ListInRange(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Appointment
	for _, s := range r.byID {
		if matches(s, filter) {
			out = append(out, domain.RehydrateAppointment(s))
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *MemoryAppointmentRepository) InsertIfAvailable(_ context.Context, appt *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := appt.State()
	if err := r.checkInsertable(state, uuid.Nil); err != nil {
		return err
	}
	r.put(state)
	return nil
}

func (r *MemoryAppointmentRepository) Update(_ context.Context, appt *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := appt.State()
	if _, ok := r.byID[state.ID]; !ok {
		return fmt.Errorf("%w: appointment %s", domain.ErrNotFound, state.ID)
	}
	r.put(state)
	return nil
}

func (r *MemoryAppointmentRepository) Reschedule(_ context.Context, previous, replacement *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := previous.State()
	if _, ok := r.byID[prev.ID]; !ok {
		return fmt.Errorf("%w: appointment %s", domain.ErrNotFound, prev.ID)
	}
	next := replacement.State()
	if err := r.checkInsertable(next, prev.ID); err != nil {
		return err
	}
	r.put(prev)
	r.put(next)
	return nil
}

// checkInsertable must run under the write lock. ignore is skipped in the
// overlap scan.
func (r *MemoryAppointmentRepository) checkInsertable(s domain.AppointmentState, ignore uuid.UUID) error {
	if _, ok := r.byID[s.ID]; ok {
		return fmt.Errorf("%w: appointment %s", domain.ErrDuplicateAppointment, s.ID)
	}
	if s.ConfirmationCode != "" {
		if _, ok := r.codes[s.ConfirmationCode]; ok {
			return fmt.Errorf("%w: confirmation code %s", domain.ErrDuplicateAppointment, s.ConfirmationCode)
		}
	}
	if !s.Status.IsBlocking() {
		return nil
	}
	for id, other := range r.byID {
		if id == ignore || other.ProviderID != s.ProviderID || !other.Status.IsBlocking() {
			continue
		}
		if stateInterval(other).Overlaps(stateInterval(s)) {
			return fmt.Errorf("%w: overlaps appointment %s", domain.ErrSlotUnavailable, id)
		}
	}
	return nil
}

func (r *MemoryAppointmentRepository) put(s domain.AppointmentState) {
	if existing, ok := r.byID[s.ID]; ok {
		s.Version = existing.Version + 1
	}
	r.byID[s.ID] = s
	if s.ConfirmationCode != "" {
		r.codes[s.ConfirmationCode] = s.ID
	}
}

// MemoryBlockedIntervalRepository keeps blocked time in process.
type MemoryBlockedIntervalRepository struct {
	mu     sync.RWMutex
	blocks map[uuid.UUID]domain.BlockedInterval
}

// NewMemoryBlockedIntervalRepository creates an empty repository.
func NewMemoryBlockedIntervalRepository() *MemoryBlockedIntervalRepository {
	return &MemoryBlockedIntervalRepository{blocks: make(map[uuid.UUID]domain.BlockedInterval)}
}

func (r *MemoryBlockedIntervalRepository) Save(_ context.Context, block *domain.BlockedInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[block.ID] = *block
	return nil
}

func (r *MemoryBlockedIntervalRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[id]; !ok {
		return fmt.Errorf("%w: blocked interval %s", domain.ErrNotFound, id)
	}
	delete(r.blocks, id)
	return nil
}

func (r *MemoryBlockedIntervalRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.BlockedInterval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: blocked interval %s", domain.ErrNotFound, id)
	}
	return &b, nil
}

func (r *MemoryBlockedIntervalRepository) ListForProvider(_ context.Context, providerID string, window domain.Interval) ([]domain.BlockedInterval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.BlockedInterval
	for _, b := range r.blocks {
		if b.AppliesTo(providerID) && mayOverlap(b, window) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func mayOverlap(b domain.BlockedInterval, window domain.Interval) bool {
	if b.Recurrence != nil {
		return b.Start.Before(window.End)
	}
	return domain.Interval{Start: b.Start, End: b.End}.Overlaps(window)
}

func stateInterval(s domain.AppointmentState) domain.Interval {
	return domain.Interval{Start: s.Start, End: s.End}
}

func matches(s domain.AppointmentState, f domain.AppointmentFilter) bool {
	if f.ProviderID != "" && s.ProviderID != f.ProviderID {
		return false
	}
	if f.ClientID != "" && s.ClientID != f.ClientID {
		return false
	}
	if !f.Range.IsZero() && !stateInterval(s).Overlaps(f.Range) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

func sortAppointments(appts []*domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].StartTime().Equal(appts[j].StartTime()) {
			return appts[i].StartTime().Before(appts[j].StartTime())
		}
		return appts[i].ID().String() < appts[j].ID().String()
	})
}
