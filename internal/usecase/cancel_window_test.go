package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

func TestCancelWindow_CountsDownToZero(t *testing.T) {
	w := NewCancelWindow(600)
	defer w.Stop()

	for i := 0; i < 600; i++ {
		w.Tick()
	}
	assert.Equal(t, 0, w.Remaining())
	// clamped, never negative
	w.Tick()
	assert.Equal(t, 0, w.Remaining())

	// affordance hidden regardless of a still-cancellable status
	assert.False(t, w.Allows(domain.StatusPending))
	assert.False(t, w.Allows(domain.StatusConfirmed))
}

func TestCancelWindow_AllowsGatesOnStatusAndTime(t *testing.T) {
	w := NewCancelWindow(60)
	defer w.Stop()

	assert.True(t, w.Allows(domain.StatusPending))
	assert.True(t, w.Allows(domain.StatusConfirmed))
	assert.False(t, w.Allows(domain.StatusPreparing))
	assert.False(t, w.Allows(domain.StatusDelivered))
	assert.False(t, w.Allows(domain.StatusCancelled))
}

func TestCancelWindow_SeedOverridesLocalCountdown(t *testing.T) {
	w := NewCancelWindow(10)
	defer w.Stop()

	for i := 0; i < 7; i++ {
		w.Tick()
	}
	assert.Equal(t, 3, w.Remaining())

	// the next poll reports the authoritative value; local drift is discarded
	w.Seed(540)
	assert.Equal(t, 540, w.Remaining())
}

func TestCancelWindow_StopIsIdempotent(t *testing.T) {
	w := NewCancelWindow(5)
	w.Stop()
	w.Stop()
	assert.Equal(t, 5, w.Remaining())
}
