package domain

import "errors"

const (
	MinQuantity = 1
	MaxQuantity = 20
)

var (
	ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 20")
	ErrMultipleVendors    = errors.New("cart contains items from more than one cook")
)

// CartLine is one priced menu-item selection. Subtotal is always recomputed
// from unit price and quantity, never stored.
type CartLine struct {
	PriceID    string   `json:"priceId"`
	ItemName   string   `json:"itemName"`
	VendorID   string   `json:"vendorId"`
	VendorName string   `json:"vendorName"`
	VendorLat  *float64 `json:"vendorLat,omitempty"`
	VendorLng  *float64 `json:"vendorLng,omitempty"`
	UnitPrice  float64  `json:"unitPrice"`
	Quantity   int      `json:"quantity"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// SetQuantity rejects out-of-range values and leaves the line unchanged.
func (l *CartLine) SetQuantity(q int) error {
	if q < MinQuantity || q > MaxQuantity {
		return ErrQuantityOutOfRange
	}
	l.Quantity = q
	return nil
}

func (l CartLine) HasVendorCoordinates() bool {
	return l.VendorLat != nil && l.VendorLng != nil
}

// PartitionByVendor groups cart lines by the cook that fulfils them.
// Pure grouping; the single-vendor rule is enforced at submission.
func PartitionByVendor(lines []CartLine) map[string][]CartLine {
	groups := make(map[string][]CartLine, len(lines))
	for _, l := range lines {
		groups[l.VendorID] = append(groups[l.VendorID], l)
	}
	return groups
}

// SingleVendor returns the only vendor id in the cart, or ErrMultipleVendors.
// One order is fulfilled by exactly one kitchen.
func SingleVendor(lines []CartLine) (string, error) {
	groups := PartitionByVendor(lines)
	if len(groups) > 1 {
		return "", ErrMultipleVendors
	}
	for id := range groups {
		return id, nil
	}
	return "", nil
}

// KeepVendor drops every line not belonging to the chosen vendor. This is the
// recovery path when checkout is blocked on a multi-vendor cart.
func KeepVendor(lines []CartLine, vendorID string) []CartLine {
	kept := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		if l.VendorID == vendorID {
			kept = append(kept, l)
		}
	}
	return kept
}

func CartSubtotal(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// VendorCoordinates returns the kitchen coordinates carried by the cart.
// All lines share one vendor by construction; the first line with
// coordinates wins.
func VendorCoordinates(lines []CartLine) (lat, lng *float64) {
	for _, l := range lines {
		if l.HasVendorCoordinates() {
			return l.VendorLat, l.VendorLng
		}
	}
	return nil, nil
}
