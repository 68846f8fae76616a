package usecase

import (
	"context"
	"errors"
	"sync"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

type fakeCheckoutService struct {
	mu         sync.Mutex
	quote      Quote
	quoteErr   error
	quoteCalls int
	lastQuote  QuoteRequest

	placed     PlacedOrder
	placeErr   error
	placeCalls int
	lastPlace  PlaceOrderRequest
}

func (f *fakeCheckoutService) CalculateQuote(_ context.Context, req QuoteRequest) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	f.lastQuote = req
	if f.quoteErr != nil {
		return Quote{}, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeCheckoutService) PlaceOrder(_ context.Context, req PlaceOrderRequest) (PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placeCalls++
	f.lastPlace = req
	if f.placeErr != nil {
		return PlacedOrder{}, f.placeErr
	}
	return f.placed, nil
}

type fakeOrderService struct {
	mu          sync.Mutex
	statuses    []domain.Status // consumed one per GetOrder call
	order       domain.Order
	getErr      error
	canCancel   CancelWindowInfo
	canErr      error
	cancelErr   error
	cancelCalls int
	trackErr    error
	tracking    TrackingInfo
	invoice     []byte
	invoiceErr  error
	emailCalls  int
	invCalls    int
}

func (f *fakeOrderService) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	o := f.order
	o.ID = orderID
	if len(f.statuses) > 0 {
		o.Status = f.statuses[0]
		f.statuses = f.statuses[1:]
		f.order.Status = o.Status
	}
	return &o, nil
}

func (f *fakeOrderService) CanCancel(context.Context, string) (CancelWindowInfo, error) {
	if f.canErr != nil {
		return CancelWindowInfo{}, f.canErr
	}
	return f.canCancel, nil
}

func (f *fakeOrderService) Cancel(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelErr
}

func (f *fakeOrderService) Tracking(context.Context, string) (*TrackingInfo, error) {
	if f.trackErr != nil {
		return nil, f.trackErr
	}
	t := f.tracking
	return &t, nil
}

func (f *fakeOrderService) GenerateInvoice(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invCalls++
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	return f.invoice, nil
}

func (f *fakeOrderService) EmailInvoice(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCalls++
	return nil
}

type fakeAddressService struct {
	addrs     []domain.Address
	formatted string
	geoErr    error
}

func (f *fakeAddressService) ListAddresses(context.Context, string) ([]domain.Address, error) {
	return f.addrs, nil
}

func (f *fakeAddressService) ReverseGeocode(context.Context, float64, float64) (string, error) {
	if f.geoErr != nil {
		return "", f.geoErr
	}
	return f.formatted, nil
}

type fakeCartStore struct {
	mu     sync.Mutex
	lines  map[string][]domain.CartLine
	clears int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{lines: make(map[string][]domain.CartLine)}
}

func (f *fakeCartStore) Load(_ context.Context, cartID string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CartLine(nil), f.lines[cartID]...), nil
}

func (f *fakeCartStore) Save(_ context.Context, cartID string, lines []domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[cartID] = append([]domain.CartLine(nil), lines...)
	return nil
}

func (f *fakeCartStore) Clear(_ context.Context, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, cartID)
	f.clears++
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (f *fakeNotifier) Publish(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) byKind(kind string) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeSnapshots struct {
	mu     sync.Mutex
	byID   map[string]domain.Order
	upsert int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{byID: make(map[string]domain.Order)}
}

func (f *fakeSnapshots) Upsert(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[o.ID] = *o
	f.upsert++
	return nil
}

func (f *fakeSnapshots) Get(_ context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[orderID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &o, nil
}

func (f *fakeSnapshots) UpdateStatusIf(_ context.Context, orderID, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[orderID]
	if !ok || string(o.Status) != from {
		return false, nil
	}
	o.Status = domain.Status(to)
	f.byID[orderID] = o
	return true, nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func coordLine(priceID, vendorID string, price float64, qty int) domain.CartLine {
	return domain.CartLine{
		PriceID:    priceID,
		ItemName:   "Rice & Curry",
		VendorID:   vendorID,
		VendorName: "Aunty Seela's Kitchen",
		VendorLat:  ptrFloat(6.9271),
		VendorLng:  ptrFloat(79.8612),
		UnitPrice:  price,
		Quantity:   qty,
	}
}

func colomboAddress(id string, withCoords bool) domain.Address {
	a := domain.Address{
		ID:         id,
		Label:      "Home",
		Line1:      "22 Temple Road",
		City:       "Colombo",
		PostalCode: "00500",
		IsDefault:  true,
	}
	if withCoords {
		a.Latitude = ptrFloat(6.9344)
		a.Longitude = ptrFloat(79.8428)
	}
	return a
}
