package kafka

import (
	"context"
	"log/slog"
	"time"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

// OrderStatusChangedMsg is the event the kitchen backend emits whenever an
// order moves through its lifecycle.
type OrderStatusChangedMsg struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	PrevStatus  string    `json:"prevStatus"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// OrderStatusChangedHandler applies backend status events to the local
// snapshot read model, so order views stay fresh between polls and after
// polling has stopped.
type OrderStatusChangedHandler struct {
	snapshots usecase.OrderSnapshots
	cache     usecase.StatusCache // optional
	log       *slog.Logger
}

func NewOrderStatusChangedHandler(snapshots usecase.OrderSnapshots, cache usecase.StatusCache, log *slog.Logger) *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{snapshots: snapshots, cache: cache, log: log}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, ev OrderStatusChangedMsg) error {
	if !domain.KnownStatus(ev.Status) {
		h.log.Warn("ignoring event with unknown status", "orderId", ev.OrderID, "status", ev.Status)
		return nil
	}

	// Guarded transition: only move the snapshot if it still shows the
	// previous status. Events can arrive out of order after a rebalance.
	moved, err := h.snapshots.UpdateStatusIf(ctx, ev.OrderID, ev.PrevStatus, ev.Status)
	if err != nil {
		return err
	}
	if !moved {
		h.log.Debug("snapshot already past event", "orderId", ev.OrderID, "from", ev.PrevStatus, "to", ev.Status)
	}

	// Cache best-effort
	if h.cache != nil {
		if err := h.cache.SetStatus(ctx, ev.OrderID, ev.Status); err != nil {
			h.log.Warn("status cache update failed", "orderId", ev.OrderID, "err", err)
		}
	}
	return nil
}
