package domain

// FeeSource records which path produced a breakdown. The local estimate is a
// degraded figure: it never carries surcharges.
type FeeSource string

const (
	FeeSourceRemote FeeSource = "remote"
	FeeSourceLocal  FeeSource = "local_estimate"
)

type OrderType string

const (
	OrderTypeRegular OrderType = "regular"
	OrderTypeBulk    OrderType = "bulk"
)

// FeeBreakdown decomposes the delivery charge. Surcharges are additive on top
// of the distance-based fee; TotalFee is never below BaseFee.
type FeeBreakdown struct {
	DistanceKm       float64   `json:"distanceKm"` // rounded to 2 decimals
	BaseFee          float64   `json:"baseFee"`
	PerKmRate        float64   `json:"perKmRate"`
	TimeSurcharge    float64   `json:"timeSurcharge"`
	WeatherSurcharge float64   `json:"weatherSurcharge"`
	TotalFee         float64   `json:"totalFee"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	Currency         string    `json:"currency"`
	Source           FeeSource `json:"source"`
}
