package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/geo"
)

// ErrMissingLocation means either the delivery address or the kitchen carries
// no coordinates. Estimating with (0,0) would silently produce garbage, so
// the estimator refuses to run instead.
var ErrMissingLocation = errors.New("delivery address or kitchen location is missing coordinates")

// FeeSchedule is the local fallback schedule: the base fee covers the free
// radius, every kilometer beyond it is charged at the per-km rate.
type FeeSchedule struct {
	BaseFee      float64
	FreeRadiusKm float64
	PerKmRate    float64
	Currency     string
}

// FeeEstimator produces a delivery fee breakdown. The remote calculation is
// authoritative; the local schedule only covers remote failures and never
// includes surcharges.
type FeeEstimator struct {
	svc   CheckoutService
	sched FeeSchedule
	log   *slog.Logger
}

func NewFeeEstimator(svc CheckoutService, sched FeeSchedule, log *slog.Logger) *FeeEstimator {
	return &FeeEstimator{svc: svc, sched: sched, log: log}
}

// Estimate is idempotent and retry-safe: its only side effect is the outbound
// quote request.
func (e *FeeEstimator) Estimate(ctx context.Context, lines []domain.CartLine, addr domain.Address, orderType domain.OrderType) (domain.FeeBreakdown, error) {
	if !addr.HasCoordinates() {
		return domain.FeeBreakdown{}, ErrMissingLocation
	}
	vlat, vlng := domain.VendorCoordinates(lines)
	if vlat == nil || vlng == nil {
		return domain.FeeBreakdown{}, ErrMissingLocation
	}

	req := QuoteRequest{
		AddressID:   addr.ID,
		OrderType:   orderType,
		DeliveryLat: *addr.Latitude,
		DeliveryLng: *addr.Longitude,
		VendorLat:   *vlat,
		VendorLng:   *vlng,
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, QuoteLine{PriceID: l.PriceID, Quantity: l.Quantity})
	}

	quote, err := e.svc.CalculateQuote(ctx, req)
	if err == nil {
		return e.fromQuote(quote), nil
	}

	e.log.Warn("remote fee calculation failed, using local schedule", "err", err)
	feeFallbacks.Inc()

	d := geo.RoundKm(geo.HaversineKm(*vlat, *vlng, *addr.Latitude, *addr.Longitude))
	return e.localEstimate(orderType, d), nil
}

func (e *FeeEstimator) fromQuote(q Quote) domain.FeeBreakdown {
	currency := q.Currency
	if currency == "" {
		currency = e.sched.Currency
	}
	return domain.FeeBreakdown{
		DistanceKm:       geo.RoundKm(q.DistanceKm),
		BaseFee:          e.sched.BaseFee,
		PerKmRate:        e.sched.PerKmRate,
		TimeSurcharge:    q.TimeSurcharge,
		WeatherSurcharge: q.WeatherSurcharge,
		TotalFee:         q.DeliveryFee,
		EstimatedMinutes: TransitMinutes(q.DistanceKm),
		Currency:         currency,
		Source:           domain.FeeSourceRemote,
	}
}

func (e *FeeEstimator) localEstimate(orderType domain.OrderType, distanceKm float64) domain.FeeBreakdown {
	base := e.sched.BaseFee
	if orderType == domain.OrderTypeBulk {
		base *= 5
	}
	fee := base + math.Max(0, distanceKm-e.sched.FreeRadiusKm)*e.sched.PerKmRate
	return domain.FeeBreakdown{
		DistanceKm:       distanceKm,
		BaseFee:          base,
		PerKmRate:        e.sched.PerKmRate,
		TotalFee:         fee,
		EstimatedMinutes: TransitMinutes(distanceKm),
		Currency:         e.sched.Currency,
		Source:           domain.FeeSourceLocal,
	}
}

// TransitMinutes estimates door-to-door transit time for a distance.
func TransitMinutes(distanceKm float64) int {
	return int(math.Ceil(10 + distanceKm*5))
}
