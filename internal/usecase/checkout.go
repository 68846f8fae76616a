package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

// Step is one screen of the checkout wizard.
type Step string

const (
	StepAddress Step = "address"
	StepPayment Step = "payment"
	StepReview  Step = "review"
)

// transitions is the table of legal wizard moves. Anything else is rejected;
// guards on top of it enforce what each step requires before entry.
var transitions = map[Step][]Step{
	StepAddress: {StepPayment},
	StepPayment: {StepAddress, StepReview},
	StepReview:  {StepPayment},
}

var (
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrIllegalTransition  = errors.New("illegal checkout step transition")
	ErrAddressRequired    = errors.New("select a delivery address with coordinates first")
	ErrPaymentRequired    = errors.New("choose a payment method first")
	ErrPaymentNotOperable = errors.New("this payment method is not available yet")
	ErrPhoneRequired      = errors.New("a contact phone number is required")
	ErrFeeRequired        = errors.New("delivery fee has not been calculated")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrUnknownAddress     = errors.New("address not found")
)

// Session is one customer's walk through checkout. All fields are guarded by
// mu; fee estimation runs outside the lock and re-checks its token before
// publishing (last selection wins, stale quotes are dropped).
type Session struct {
	ID         string
	CustomerID string
	CartID     string

	mu        sync.Mutex
	step      Step
	lines     []domain.CartLine
	addresses []domain.Address
	selected  *domain.Address
	payment   domain.PaymentMethod
	phone     string
	notes     string
	fee       *domain.FeeBreakdown
	feeToken  uint64
	orderType domain.OrderType
}

// Totals is the review-step money summary. Tax applies to the subtotal only.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	TaxAmount   float64 `json:"taxAmount"`
	DeliveryFee float64 `json:"deliveryFee"`
	TotalAmount float64 `json:"totalAmount"`
}

// SessionView is the handler-facing snapshot of a session.
type SessionView struct {
	ID          string               `json:"id"`
	Step        Step                 `json:"step"`
	Lines       []domain.CartLine    `json:"lines"`
	Addresses   []domain.Address     `json:"addresses"`
	Selected    *domain.Address      `json:"selectedAddress,omitempty"`
	Payment     domain.PaymentMethod `json:"paymentMethod,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Notes       string               `json:"instructions,omitempty"`
	Fee         *domain.FeeBreakdown `json:"feeBreakdown,omitempty"`
	MultiVendor bool                 `json:"multiVendor"`
	Totals      *Totals              `json:"totals,omitempty"`
}

// Checkout sequences address selection, fee calculation, payment capture and
// order submission for cart sessions.
type Checkout struct {
	estimator *FeeEstimator
	svc       CheckoutService
	addresses AddressService
	carts     CartStore
	notifier  Notifier
	taxRate   float64
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewCheckout(estimator *FeeEstimator, svc CheckoutService, addresses AddressService, carts CartStore, notifier Notifier, taxRate float64, log *slog.Logger) *Checkout {
	return &Checkout{
		estimator: estimator,
		svc:       svc,
		addresses: addresses,
		carts:     carts,
		notifier:  notifier,
		taxRate:   taxRate,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// StartSession loads the cart and saved addresses, auto-selects the default
// address and kicks off the first fee estimate.
func (c *Checkout) StartSession(ctx context.Context, customerID, cartID string) (*Session, error) {
	lines, err := c.carts.Load(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	addrs, err := c.addresses.ListAddresses(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}

	s := &Session{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		CartID:     cartID,
		step:       StepAddress,
		lines:      lines,
		addresses:  addrs,
		orderType:  domain.OrderTypeRegular,
	}

	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()

	if def, ok := domain.DefaultAddress(addrs); ok {
		// Best-effort: a failed initial estimate just leaves the fee unset.
		if err := c.SelectAddress(ctx, s.ID, def.ID); err != nil && !errors.Is(err, ErrMissingLocation) {
			c.log.Warn("initial fee estimate failed", "session", s.ID, "err", err)
		}
	}
	return s, nil
}

func (c *Checkout) Session(id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// EndSession drops the session. Cart state lives in the store and survives.
func (c *Checkout) EndSession(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// SelectAddress picks a saved address and re-estimates the delivery fee.
// Each call bumps the session's fee token; a completing estimate publishes
// its breakdown only while its token is still the latest.
func (c *Checkout) SelectAddress(ctx context.Context, sessionID, addressID string) error {
	s, err := c.Session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var picked *domain.Address
	for i := range s.addresses {
		if s.addresses[i].ID == addressID {
			picked = &s.addresses[i]
			break
		}
	}
	if picked == nil {
		s.mu.Unlock()
		return ErrUnknownAddress
	}
	s.selected = picked
	s.fee = nil
	s.feeToken++
	token := s.feeToken
	addr := *picked
	lines := append([]domain.CartLine(nil), s.lines...)
	orderType := s.orderType
	s.mu.Unlock()

	if !addr.HasCoordinates() {
		return ErrMissingLocation
	}

	breakdown, err := c.estimator.Estimate(ctx, lines, addr, orderType)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feeToken != token {
		// A newer selection superseded this estimate; drop it.
		c.log.Debug("dropping stale fee estimate", "session", sessionID, "token", token)
		return nil
	}
	s.fee = &breakdown
	return nil
}

// UseCurrentLocation reverse-geocodes the device position into address text
// fields. The caller persists the address through the (external) address
// service and then re-lists; the engine only fills the form.
func (c *Checkout) UseCurrentLocation(ctx context.Context, sessionID string, lat, lng float64) (domain.Address, error) {
	if _, err := c.Session(sessionID); err != nil {
		return domain.Address{}, err
	}
	formatted, err := c.addresses.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return domain.Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	return domain.Address{
		Label:     "Current location",
		Line1:     formatted,
		Latitude:  &lat,
		Longitude: &lng,
	}, nil
}

// GoTo moves the wizard to another step, rejecting moves outside the
// transition table and moves whose entry guard is not satisfied.
func (c *Checkout) GoTo(sessionID string, to Step) error {
	s, err := c.Session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	legal := false
	for _, next := range transitions[s.step] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.step, to)
	}

	switch to {
	case StepPayment:
		if s.selected == nil || !s.selected.HasCoordinates() {
			return ErrAddressRequired
		}
		if len(domain.PartitionByVendor(s.lines)) > 1 {
			return domain.ErrMultipleVendors
		}
	case StepReview:
		if s.payment == "" {
			return ErrPaymentRequired
		}
	}
	s.step = to
	return nil
}

// SelectPayment records the payment method. Only cash-on-delivery is
// operable today; the others are visible but disabled placeholders.
func (c *Checkout) SelectPayment(sessionID string, method domain.PaymentMethod) error {
	s, err := c.Session(sessionID)
	if err != nil {
		return err
	}
	if !method.Operable() {
		return ErrPaymentNotOperable
	}
	s.mu.Lock()
	s.payment = method
	s.mu.Unlock()
	return nil
}

func (c *Checkout) SetContact(sessionID, phone, notes string) error {
	s, err := c.Session(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.phone = strings.TrimSpace(phone)
	s.notes = notes
	s.mu.Unlock()
	return nil
}

// KeepVendor resolves a multi-vendor cart by discarding every line that does
// not belong to the chosen cook, in the session and in the stored cart.
func (c *Checkout) KeepVendor(ctx context.Context, sessionID, vendorID string) error {
	s, err := c.Session(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lines = domain.KeepVendor(s.lines, vendorID)
	lines := append([]domain.CartLine(nil), s.lines...)
	cartID := s.CartID
	s.mu.Unlock()
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	return c.carts.Save(ctx, cartID, lines)
}

func (c *Checkout) round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *Checkout) totalsLocked(s *Session) Totals {
	subtotal := domain.CartSubtotal(s.lines)
	tax := c.round2(subtotal * c.taxRate)
	var fee float64
	if s.fee != nil {
		fee = s.fee.TotalFee
	}
	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		DeliveryFee: fee,
		TotalAmount: subtotal + tax + fee,
	}
}

// Totals recomputes the presented total: subtotal + tax on subtotal only +
// delivery fee.
func (c *Checkout) Totals(sessionID string) (Totals, error) {
	s, err := c.Session(sessionID)
	if err != nil {
		return Totals{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.totalsLocked(s), nil
}

func (c *Checkout) View(sessionID string) (SessionView, error) {
	s, err := c.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionView{
		ID:          s.ID,
		Step:        s.step,
		Lines:       append([]domain.CartLine(nil), s.lines...),
		Addresses:   append([]domain.Address(nil), s.addresses...),
		Selected:    s.selected,
		Payment:     s.payment,
		Phone:       s.phone,
		Notes:       s.notes,
		Fee:         s.fee,
		MultiVendor: len(domain.PartitionByVendor(s.lines)) > 1,
	}
	if s.step == StepReview {
		t := c.totalsLocked(s)
		v.Totals = &t
	}
	return v, nil
}

// PlaceOrder validates locally, then submits. Submission is only legal from
// the review step, so the wizard's guards cannot be skipped by calling this
// directly. Validation failures never reach the network; backend failures
// come back verbatim and leave the session on the review step for retry.
func (c *Checkout) PlaceOrder(ctx context.Context, sessionID string) (PlacedOrder, error) {
	s, err := c.Session(sessionID)
	if err != nil {
		return PlacedOrder{}, err
	}

	s.mu.Lock()
	if s.step != StepReview {
		s.mu.Unlock()
		return PlacedOrder{}, fmt.Errorf("%w: place order from %s", ErrIllegalTransition, s.step)
	}
	if !s.payment.Operable() {
		s.mu.Unlock()
		return PlacedOrder{}, ErrPaymentRequired
	}
	if s.phone == "" {
		s.mu.Unlock()
		return PlacedOrder{}, ErrPhoneRequired
	}
	if s.selected == nil {
		s.mu.Unlock()
		return PlacedOrder{}, ErrAddressRequired
	}
	if s.fee == nil {
		s.mu.Unlock()
		return PlacedOrder{}, ErrFeeRequired
	}
	if len(domain.PartitionByVendor(s.lines)) > 1 {
		s.mu.Unlock()
		return PlacedOrder{}, domain.ErrMultipleVendors
	}
	t := c.totalsLocked(s)
	req := PlaceOrderRequest{
		AddressID:     s.selected.ID,
		Instructions:  s.notes,
		PaymentMethod: s.payment,
		Phone:         s.phone,
		DeliveryFee:   t.DeliveryFee,
		Subtotal:      t.Subtotal,
		TaxAmount:     t.TaxAmount,
		TotalAmount:   t.TotalAmount,
	}
	cartID := s.CartID
	s.mu.Unlock()

	placed, err := c.svc.PlaceOrder(ctx, req)
	if err != nil {
		return PlacedOrder{}, err
	}

	// Cart lines are destroyed on successful submission.
	if err := c.carts.Clear(ctx, cartID); err != nil {
		c.log.Warn("clear cart after placement failed", "cart", cartID, "err", err)
	}
	c.EndSession(sessionID)

	if c.notifier != nil {
		_ = c.notifier.Publish(ctx, Notification{
			Kind:        "order.placed",
			OrderID:     placed.OrderID,
			OrderNumber: placed.OrderNumber,
			Message:     "Your order has been placed and is waiting for the cook to confirm.",
		})
	}
	return placed, nil
}
