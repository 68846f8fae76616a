package usecase

import (
	"context"
	"time"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

// QuoteLine identifies one priced cart line in a remote fee calculation.
type QuoteLine struct {
	PriceID  string `json:"priceId"`
	Quantity int    `json:"quantity"`
}

type QuoteRequest struct {
	Lines       []QuoteLine
	AddressID   string
	OrderType   domain.OrderType
	DeliveryLat float64
	DeliveryLng float64
	VendorLat   float64
	VendorLng   float64
}

// Quote is the remote service's authoritative fee calculation. Surcharges are
// informational pass-throughs; the engine never recomputes them.
type Quote struct {
	DeliveryFee      float64
	DistanceKm       float64
	TimeSurcharge    float64
	WeatherSurcharge float64
	Currency         string
}

type PlaceOrderRequest struct {
	AddressID     string
	Instructions  string
	PaymentMethod domain.PaymentMethod
	Phone         string
	DeliveryFee   float64
	Subtotal      float64
	TaxAmount     float64
	TotalAmount   float64
}

type PlacedOrder struct {
	OrderID     string
	OrderNumber string
}

type CancelWindowInfo struct {
	CanCancel        bool
	RemainingSeconds *int
}

// TrackingInfo is best-effort live delivery data. Absence is not an error.
type TrackingInfo struct {
	LatestLat *float64  `json:"latestLat,omitempty"`
	LatestLng *float64  `json:"latestLng,omitempty"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CheckoutService is the remote checkout surface: fee quoting and submission.
type CheckoutService interface {
	CalculateQuote(ctx context.Context, req QuoteRequest) (Quote, error)
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlacedOrder, error)
}

// OrderService is the remote order surface consumed after placement.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CanCancel(ctx context.Context, orderID string) (CancelWindowInfo, error)
	Cancel(ctx context.Context, orderID, reason string) error
	Tracking(ctx context.Context, orderID string) (*TrackingInfo, error)
	GenerateInvoice(ctx context.Context, orderID string) ([]byte, error)
	EmailInvoice(ctx context.Context, orderID string) error
}

// AddressService lists saved addresses and reverse-geocodes device locations.
type AddressService interface {
	ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// CartStore holds the customer's cart session between requests.
type CartStore interface {
	Load(ctx context.Context, cartID string) ([]domain.CartLine, error)
	Save(ctx context.Context, cartID string, lines []domain.CartLine) error
	Clear(ctx context.Context, cartID string) error
}

// OrderSnapshots is the local read model of tracked orders. It lets the
// order view survive the end of polling and feeds the status event listener.
type OrderSnapshots interface {
	Upsert(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatusIf(ctx context.Context, orderID, fromStatus, toStatus string) (bool, error)
}

// StatusCache is a short-lived cache of last-known order statuses.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type Notification struct {
	Kind        string `json:"kind"` // order.placed | order.delivered | order.cancelled
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message"`
}

// Notifier hands lifecycle events to the (out-of-process) notification service.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// BackendError carries the server-reported message verbatim so handlers can
// surface it unchanged.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string { return e.Message }
