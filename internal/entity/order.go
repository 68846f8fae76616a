package domain

import "time"

type Status string

const (
	StatusCart           Status = "cart"
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// Cancellable reports whether a customer may still cancel an order in this
// status. The kitchen has not started preparing yet.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether the order can no longer change status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// KnownStatus reports whether raw names one of the lifecycle statuses.
func KnownStatus(raw string) bool {
	switch Status(raw) {
	case StatusCart, StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
	PaymentWallet PaymentMethod = "wallet"
)

// Operable reports whether the method can actually be charged today.
// Card/online/wallet are listed but disabled until the payment gateway lands.
func (m PaymentMethod) Operable() bool {
	return m == PaymentCash
}

// Order is the engine's read-only copy of a placed order. It is created once
// at checkout and thereafter refreshed from the remote order service.
type Order struct {
	ID            string
	OrderNumber   string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod

	Subtotal    float64
	TaxAmount   float64
	DeliveryFee float64
	TotalAmount float64

	CreatedAt time.Time

	VendorID        string
	VendorName      string
	DeliveryAgentID *string // nil until the backend assigns one

	DeliveryAddress Address // snapshot taken at placement

	StatusTimestamps map[Status]time.Time

	CanCancel        bool
	RemainingSeconds *int // nil when the server did not report a window
}

// InvoiceAvailable reports whether invoice download/email may be offered.
// Rule from the billing side: paid orders only, and never while the order is
// still a cart or awaiting confirmation.
func (o *Order) InvoiceAvailable() bool {
	if o.PaymentStatus != PaymentPaid {
		return false
	}
	return o.Status != StatusCart && o.Status != StatusPending
}
