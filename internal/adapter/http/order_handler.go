package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

// OrderHandler serves placed orders: viewing, live tracking, cancellation and
// invoices. Reads prefer the tracker's last copy, then the local snapshot,
// then the backend.
type OrderHandler struct {
	orders    usecase.OrderService
	snapshots usecase.OrderSnapshots
	statuses  usecase.StatusCache
	trackers  *usecase.TrackerRegistry
	invoices  *usecase.Invoices
}

func NewOrderHandler(orders usecase.OrderService, snapshots usecase.OrderSnapshots, statuses usecase.StatusCache, trackers *usecase.TrackerRegistry, invoices *usecase.Invoices) *OrderHandler {
	return &OrderHandler{orders: orders, snapshots: snapshots, statuses: statuses, trackers: trackers, invoices: invoices}
}

type orderResp struct {
	OrderID          string                `json:"orderId"`
	OrderNumber      string                `json:"orderNumber"`
	Status           string                `json:"status"`
	PaymentStatus    string                `json:"paymentStatus"`
	PaymentMethod    string                `json:"paymentMethod"`
	Subtotal         float64               `json:"subtotal"`
	TaxAmount        float64               `json:"taxAmount"`
	DeliveryFee      float64               `json:"deliveryFee"`
	TotalAmount      float64               `json:"totalAmount"`
	VendorID         string                `json:"vendorId"`
	VendorName       string                `json:"vendorName"`
	StatusTimestamps map[string]time.Time  `json:"statusTimestamps,omitempty"`
	InvoiceAvailable bool                  `json:"invoiceAvailable"`
	Cancel           cancelStateResp       `json:"cancel"`
	Tracking         *usecase.TrackingInfo `json:"tracking,omitempty"`
}

type cancelStateResp struct {
	Allowed          bool `json:"allowed"`
	RemainingSeconds int  `json:"remainingSeconds"`
}

func toOrderResp(o *domain.Order) orderResp {
	ts := make(map[string]time.Time, len(o.StatusTimestamps))
	for s, at := range o.StatusTimestamps {
		ts[string(s)] = at
	}
	return orderResp{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentMethod:    string(o.PaymentMethod),
		Subtotal:         o.Subtotal,
		TaxAmount:        o.TaxAmount,
		DeliveryFee:      o.DeliveryFee,
		TotalAmount:      o.TotalAmount,
		VendorID:         o.VendorID,
		VendorName:       o.VendorName,
		StatusTimestamps: ts,
		InvoiceAvailable: o.InvoiceAvailable(),
	}
}

func (h *OrderHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// GetOrder returns the order view. A live tracker's copy wins; otherwise the
// snapshot read model; otherwise a direct backend fetch.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")

	if t, ok := h.trackers.Get(id); ok {
		if o := t.Order(); o != nil {
			resp := toOrderResp(o)
			remaining, allowed := t.CancelState()
			resp.Cancel = cancelStateResp{Allowed: allowed, RemainingSeconds: remaining}
			resp.Tracking = t.TrackingData()
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if h.snapshots != nil {
		// read model is best-effort, any miss falls back to the backend
		if o, err := h.snapshots.Get(ctx, id); err == nil {
			c.JSON(http.StatusOK, toOrderResp(o))
			return
		}
	}

	o, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

// StartTracking begins bounded status polling for the order. Idempotent.
func (h *OrderHandler) StartTracking(c *gin.Context) {
	id := c.Param("id")
	// tracker outlives the request, poll with a background context
	t := h.trackers.Start(context.Background(), id)

	resp := gin.H{"tracking": true}
	if o := t.Order(); o != nil {
		resp["status"] = string(o.Status)
	}
	c.JSON(http.StatusAccepted, resp)
}

// StopTracking tears the tracker down, releasing its timers.
func (h *OrderHandler) StopTracking(c *gin.Context) {
	h.trackers.Stop(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Cancellable reports the cancel affordance: whether to show the button and
// how many seconds remain on the countdown.
func (h *OrderHandler) Cancellable(c *gin.Context) {
	id := c.Param("id")

	if t, ok := h.trackers.Get(id); ok {
		remaining, allowed := t.CancelState()
		c.JSON(http.StatusOK, cancelStateResp{Allowed: allowed, RemainingSeconds: remaining})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	// the status event stream answers "too late to cancel" without a
	// backend round trip
	if h.statuses != nil {
		if status, ok, err := h.statuses.GetStatus(ctx, id); err == nil && ok {
			if !domain.Status(status).Cancellable() {
				c.JSON(http.StatusOK, cancelStateResp{Allowed: false})
				return
			}
		}
	}

	info, err := h.orders.CanCancel(ctx, id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	resp := cancelStateResp{Allowed: info.CanCancel}
	if info.RemainingSeconds != nil {
		resp.RemainingSeconds = *info.RemainingSeconds
	}
	c.JSON(http.StatusOK, resp)
}

type cancelOrderReq struct {
	Confirm bool `json:"confirm"`
}

// CancelOrder cancels within the window. The confirm flag is the API-level
// stand-in for the "are you sure" dialog; without it nothing happens.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req cancelOrderReq
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation required"})
		return
	}

	id := c.Param("id")
	t, ok := h.trackers.Get(id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not being tracked"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := t.CancelOrder(ctx); err != nil {
		writeOrderError(c, err)
		return
	}

	resp := gin.H{"cancelled": true}
	if o := t.Order(); o != nil {
		resp["status"] = string(o.Status)
	}
	c.JSON(http.StatusOK, resp)
}

// Tracking returns best-effort live delivery data.
func (h *OrderHandler) Tracking(c *gin.Context) {
	id := c.Param("id")

	if t, ok := h.trackers.Get(id); ok {
		if ti := t.TrackingData(); ti != nil {
			c.JSON(http.StatusOK, ti)
			return
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	ti, err := h.orders.Tracking(ctx, id)
	if err != nil || ti == nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, ti)
}

// DownloadInvoice streams the invoice PDF for paid orders.
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	doc, err := h.invoices.Download(ctx, c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoice-`+c.Param("id")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *OrderHandler) EmailInvoice(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.invoices.Email(ctx, c.Param("id")); err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func writeOrderError(c *gin.Context, err error) {
	var be *usecase.BackendError
	if errors.As(err, &be) {
		c.JSON(be.StatusCode, gin.H{"error": be.Message})
		return
	}
	switch {
	case errors.Is(err, usecase.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvoiceUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "order service unavailable"})
	}
}
