package domain

import (
	"fmt"
	"time"
)

// DefaultCancellationNotice is the minimum lead time for a client cancellation.
const DefaultCancellationNotice = 24 * time.Hour

// CancellationPolicy enforces minimum notice before an appointment starts.
type CancellationPolicy struct {
	Notice time.Duration
	// EnforceOnReschedule applies the same notice to reschedules.
	EnforceOnReschedule bool
}

// DefaultCancellationPolicy returns the 24 hour policy.
func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{Notice: DefaultCancellationNotice}
}

// CheckCancel fails with ErrPolicyViolation when start is less than Notice away from now.
func (p CancellationPolicy) CheckCancel(start, now time.Time) error {
	if lead := start.Sub(now); lead < p.Notice {
		return fmt.Errorf("%w: cancellation requires %s notice, appointment starts in %s",
			ErrPolicyViolation, p.Notice, lead.Truncate(time.Minute))
	}
	return nil
}

// CheckReschedule applies the notice to reschedules when enabled.
func (p CancellationPolicy) CheckReschedule(start, now time.Time) error {
	if !p.EnforceOnReschedule {
		return nil
	}
	return p.CheckCancel(start, now)
}
