package usecase

import (
	"context"
	"errors"
	"log/slog"
)

// ErrInvoiceUnavailable gates invoice actions: paid orders only, and not
// while the order is still a cart or pending confirmation.
var ErrInvoiceUnavailable = errors.New("invoice is not available for this order yet")

// Invoices wraps the backend invoice endpoints behind the availability rule
// so an unpaid order never triggers a generation call.
type Invoices struct {
	orders OrderService
	log    *slog.Logger
}

func NewInvoices(orders OrderService, log *slog.Logger) *Invoices {
	return &Invoices{orders: orders, log: log}
}

func (i *Invoices) Download(ctx context.Context, orderID string) ([]byte, error) {
	o, err := i.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.InvoiceAvailable() {
		return nil, ErrInvoiceUnavailable
	}
	return i.orders.GenerateInvoice(ctx, orderID)
}

func (i *Invoices) Email(ctx context.Context, orderID string) error {
	o, err := i.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.InvoiceAvailable() {
		return ErrInvoiceUnavailable
	}
	return i.orders.EmailInvoice(ctx, orderID)
}
