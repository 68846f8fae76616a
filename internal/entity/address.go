package domain

// Address is a saved delivery address. Coordinates are optional; an address
// without them cannot be used for fee calculation.
type Address struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	PostalCode string   `json:"postalCode"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	IsDefault  bool     `json:"isDefault"`
}

func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// DefaultAddress picks the address flagged as default, if any.
func DefaultAddress(addrs []Address) (Address, bool) {
	for _, a := range addrs {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}
