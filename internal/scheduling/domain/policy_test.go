package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
)

func TestCancellationPolicy_CheckCancel(t *testing.T) {
	policy := domain.DefaultCancellationPolicy()
	now := date(2024, 1, 1, 9, 0)

	t.Run("24h and one minute ahead is allowed", func(t *testing.T) {
		assert.NoError(t, policy.CheckCancel(now.Add(24*time.Hour+time.Minute), now))
	})

	t.Run("exactly 24h ahead is allowed", func(t *testing.T) {
		assert.NoError(t, policy.CheckCancel(now.Add(24*time.Hour), now))
	})

	t.Run("23h59m ahead violates the policy", func(t *testing.T) {
		err := policy.CheckCancel(now.Add(23*time.Hour+59*time.Minute), now)
		assert.ErrorIs(t, err, domain.ErrPolicyViolation)
	})

	t.Run("past appointments violate the policy", func(t *testing.T) {
		assert.ErrorIs(t, policy.CheckCancel(now.Add(-time.Hour), now), domain.ErrPolicyViolation)
	})
}

func TestCancellationPolicy_CheckReschedule(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	soon := now.Add(time.Hour)

	assert.NoError(t, domain.DefaultCancellationPolicy().CheckReschedule(soon, now))

	strict := domain.CancellationPolicy{Notice: 24 * time.Hour, EnforceOnReschedule: true}
	assert.ErrorIs(t, strict.CheckReschedule(soon, now), domain.ErrPolicyViolation)
}
