package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

// CancelReason is the fixed reason sent with every customer cancellation.
const CancelReason = "Cancelled by customer before preparation started"

var ErrNotCancellable = errors.New("order can no longer be cancelled")

type TrackerConfig struct {
	PollInterval      time.Duration // status poll cadence
	MaxPolls          int           // polling stops after this many firings
	DefaultWindowSecs int           // cancellation window when the server omits one
	CloseDelay        time.Duration // grace period before the tracker closes itself
}

// Tracker follows one placed order: it polls status on a fixed interval for a
// bounded number of attempts, detects transitions, owns the cancellation
// window, and opportunistically picks up live tracking info. Both of its
// timers are released by Stop; leaking them would keep polling after the
// customer has navigated away.
type Tracker struct {
	orderID   string
	orders    OrderService
	snapshots OrderSnapshots
	notifier  Notifier
	cfg       TrackerConfig
	log       *slog.Logger

	mu            sync.Mutex
	last          *domain.Order
	tracking      *TrackingInfo
	window        *CancelWindow
	deliveredSent bool
	closeTimer    *time.Timer
	onClose       func(orderID string)

	stopOnce sync.Once
	stopPoll context.CancelFunc
}

func NewTracker(orderID string, orders OrderService, snapshots OrderSnapshots, notifier Notifier, cfg TrackerConfig, log *slog.Logger) *Tracker {
	return &Tracker{
		orderID:   orderID,
		orders:    orders,
		snapshots: snapshots,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With("order_id", orderID),
	}
}

// Start fetches the order immediately, then polls until MaxPolls firings or
// Stop. After the budget runs out the order is still viewable, just no
// longer auto-refreshed.
func (t *Tracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.stopPoll = cancel
	t.mu.Unlock()

	t.pollOnce(ctx)

	go func() {
		ticker := time.NewTicker(t.cfg.PollInterval)
		defer ticker.Stop()
		for polls := 0; polls < t.cfg.MaxPolls; {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				polls++
				t.pollOnce(ctx)
			}
		}
		t.log.Info("poll budget exhausted, auto-refresh stopped", "polls", t.cfg.MaxPolls)
	}()
}

func (t *Tracker) pollOnce(ctx context.Context) {
	o, err := t.orders.GetOrder(ctx, t.orderID)
	if err != nil {
		t.log.Warn("order fetch failed", "err", err)
		return
	}
	orderPolls.Inc()

	t.mu.Lock()
	var prev domain.Status
	if t.last != nil {
		prev = t.last.Status
	}
	t.last = o
	t.mu.Unlock()

	if t.snapshots != nil {
		if err := t.snapshots.Upsert(ctx, o); err != nil {
			t.log.Warn("snapshot upsert failed", "err", err)
		}
	}

	if o.Status == domain.StatusDelivered && prev != domain.StatusDelivered {
		t.notifyDeliveredOnce(ctx, o)
	}

	t.refreshTracking(ctx)
	t.refreshCancellability(ctx, o.Status)
}

// notifyDeliveredOnce fires the success notification exactly once per
// tracker, then schedules the delayed close so the customer can read it.
func (t *Tracker) notifyDeliveredOnce(ctx context.Context, o *domain.Order) {
	t.mu.Lock()
	if t.deliveredSent {
		t.mu.Unlock()
		return
	}
	t.deliveredSent = true
	t.mu.Unlock()

	deliveredNotices.Inc()
	if t.notifier != nil {
		_ = t.notifier.Publish(ctx, Notification{
			Kind:        "order.delivered",
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Message:     "Your order has been delivered. Enjoy your meal!",
		})
	}
	t.scheduleClose()
}

// refreshTracking is best-effort: live location data is nice to have, never
// essential, so failures are logged and swallowed.
func (t *Tracker) refreshTracking(ctx context.Context) {
	ti, err := t.orders.Tracking(ctx, t.orderID)
	if err != nil {
		t.log.Debug("tracking info unavailable", "err", err)
		return
	}
	t.mu.Lock()
	t.tracking = ti
	t.mu.Unlock()
}

// refreshCancellability asks the backend whether cancelling is still allowed
// and keeps the local countdown in sync with the authoritative remaining
// time. Failures here only mean the cancel affordance stays hidden.
func (t *Tracker) refreshCancellability(ctx context.Context, status domain.Status) {
	if !status.Cancellable() {
		t.destroyWindow()
		return
	}

	info, err := t.orders.CanCancel(ctx, t.orderID)
	if err != nil {
		t.log.Debug("cancellability check failed", "err", err)
		return
	}
	if !info.CanCancel {
		t.destroyWindow()
		return
	}

	secs := t.cfg.DefaultWindowSecs
	if info.RemainingSeconds != nil {
		secs = *info.RemainingSeconds
	}

	// check-and-assign under one lock so concurrent polls cannot each
	// start a countdown
	t.mu.Lock()
	if t.window == nil {
		t.window = NewCancelWindow(secs)
	} else {
		t.window.Seed(secs)
	}
	t.mu.Unlock()
}

func (t *Tracker) destroyWindow() {
	t.mu.Lock()
	w := t.window
	t.window = nil
	t.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// CancelOrder issues the customer cancellation. The caller has already asked
// the user to confirm. On success the order is refetched so the cancelled
// status shows, and the tracker closes after a short delay; on failure the
// window keeps running and the error carries the server's message verbatim.
func (t *Tracker) CancelOrder(ctx context.Context) error {
	t.mu.Lock()
	o := t.last
	w := t.window
	t.mu.Unlock()

	if o == nil || w == nil || !w.Allows(o.Status) {
		return ErrNotCancellable
	}

	if err := t.orders.Cancel(ctx, t.orderID, CancelReason); err != nil {
		return err
	}
	cancellations.Inc()

	t.pollOnce(ctx)
	if t.notifier != nil {
		_ = t.notifier.Publish(ctx, Notification{
			Kind:        "order.cancelled",
			OrderID:     t.orderID,
			OrderNumber: o.OrderNumber,
			Message:     "Your order has been cancelled.",
		})
	}
	t.scheduleClose()
	return nil
}

func (t *Tracker) scheduleClose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeTimer != nil {
		return
	}
	onClose := t.onClose
	t.closeTimer = time.AfterFunc(t.cfg.CloseDelay, func() {
		t.Stop()
		if onClose != nil {
			onClose(t.orderID)
		}
	})
}

// Order returns the last fetched copy, nil before the first successful poll.
func (t *Tracker) Order() *domain.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Tracker) TrackingData() *TrackingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// CancelState reports the countdown and whether the cancel action should be
// offered right now.
func (t *Tracker) CancelState() (remaining int, allowed bool) {
	t.mu.Lock()
	o := t.last
	w := t.window
	t.mu.Unlock()
	if o == nil || w == nil {
		return 0, false
	}
	return w.Remaining(), w.Allows(o.Status)
}

// Stop tears the tracker down: poll loop, countdown and close timer.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		cancel := t.stopPoll
		w := t.window
		ct := t.closeTimer
		t.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if w != nil {
			w.Stop()
		}
		if ct != nil {
			ct.Stop()
		}
	})
}

// TrackerRegistry owns the live trackers, one per order. Starting is
// idempotent; dismissing the tracker view stops and removes it.
type TrackerRegistry struct {
	mu      sync.Mutex
	m       map[string]*Tracker
	factory func(orderID string) *Tracker
}

func NewTrackerRegistry(factory func(orderID string) *Tracker) *TrackerRegistry {
	return &TrackerRegistry{m: make(map[string]*Tracker), factory: factory}
}

func (r *TrackerRegistry) Start(ctx context.Context, orderID string) *Tracker {
	r.mu.Lock()
	if t, ok := r.m[orderID]; ok {
		r.mu.Unlock()
		return t
	}
	t := r.factory(orderID)
	t.onClose = func(id string) {
		r.mu.Lock()
		delete(r.m, id)
		r.mu.Unlock()
	}
	r.m[orderID] = t
	r.mu.Unlock()

	t.Start(ctx)
	return t
}

func (r *TrackerRegistry) Get(orderID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[orderID]
	return t, ok
}

func (r *TrackerRegistry) Stop(orderID string) {
	r.mu.Lock()
	t, ok := r.m[orderID]
	delete(r.m, orderID)
	r.mu.Unlock()
	if ok {
		t.Stop()
	}
}

func (r *TrackerRegistry) StopAll() {
	r.mu.Lock()
	trackers := make([]*Tracker, 0, len(r.m))
	for _, t := range r.m {
		trackers = append(trackers, t)
	}
	r.m = make(map[string]*Tracker)
	r.mu.Unlock()
	for _, t := range trackers {
		t.Stop()
	}
}
