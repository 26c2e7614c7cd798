package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	assert.False(t, b.RecordFailure().Opened)
	assert.False(t, b.RecordFailure().Opened)
	assert.True(t, b.RecordFailure().Opened)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("test", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	assert.False(t, b.RecordFailure().Opened)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerCooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	now = now.Add(5 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(5 * time.Second)
	assert.True(t, b.Allow())

	// a failed probe restarts the cooldown
	assert.False(t, b.RecordFailure().Opened)
	assert.False(t, b.Allow())

	now = now.Add(10 * time.Second)
	assert.False(t, b.RecordSuccess().Closed)
	assert.True(t, b.RecordSuccess().Closed)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestNilBreakerAllows(t *testing.T) {
	var b *Breaker

	assert.True(t, b.Allow())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordSuccess())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
}
