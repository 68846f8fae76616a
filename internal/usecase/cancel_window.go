package usecase

import (
	"sync"
	"time"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

// CancelWindow counts down the seconds a customer has left to cancel. It
// trusts the last server-reported value and ticks locally between polls; the
// next poll reseeds it, so short-term drift is acceptable.
type CancelWindow struct {
	mu        sync.Mutex
	remaining int
	seededAt  time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewCancelWindow seeds the window and starts the 1-second local timer.
// The timer self-cancels when the countdown hits zero; Stop releases it
// earlier when the owning tracker is torn down.
func NewCancelWindow(seconds int) *CancelWindow {
	w := &CancelWindow{
		remaining: seconds,
		seededAt:  time.Now(),
		ticker:    time.NewTicker(time.Second),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *CancelWindow) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.ticker.C:
			if w.Tick() == 0 {
				w.Stop()
				return
			}
		}
	}
}

// Tick decrements the countdown, clamped at zero, and returns the new value.
func (w *CancelWindow) Tick() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.remaining > 0 {
		w.remaining--
	}
	return w.remaining
}

// Seed overwrites the countdown with an authoritative server value.
func (w *CancelWindow) Seed(seconds int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.remaining = seconds
	w.seededAt = time.Now()
}

func (w *CancelWindow) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remaining
}

// Allows gates the cancel affordance: still in a cancellable status and time
// left on the clock.
func (w *CancelWindow) Allows(status domain.Status) bool {
	return status.Cancellable() && w.Remaining() > 0
}

// Stop releases the timer. Safe to call more than once.
func (w *CancelWindow) Stop() {
	w.stopOnce.Do(func() {
		w.ticker.Stop()
		close(w.done)
	})
}
