// Package backend is the outbound JSON client for the remote order,
// address and geocoding services the checkout engine fronts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

type Client struct {
	base string
	hc   *http.Client
	ua   string
	log  *slog.Logger
}

func New(baseURL string, timeout time.Duration, userAgent string, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: timeout},
		ua:   userAgent,
		log:  log,
	}
}

// do issues one JSON round trip. Non-2xx responses become *usecase.BackendError
// carrying the server's message verbatim.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.asBackendError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) asBackendError(resp *http.Response) error {
	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := ""
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024)); err == nil {
		if json.Unmarshal(b, &envelope) == nil {
			if envelope.Error != "" {
				msg = envelope.Error
			} else {
				msg = envelope.Detail
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &usecase.BackendError{StatusCode: resp.StatusCode, Message: msg}
}

// --- CheckoutService ---

type quoteResp struct {
	DeliveryFee float64 `json:"deliveryFee"`
	Currency    string  `json:"currency"`
	Breakdown   struct {
		Factors struct {
			DistanceKm float64 `json:"distanceKm"`
		} `json:"factors"`
		Breakdown struct {
			TimeSurcharge    float64 `json:"timeSurcharge"`
			WeatherSurcharge float64 `json:"weatherSurcharge"`
		} `json:"breakdown"`
	} `json:"deliveryFeeBreakdown"`
}

func (c *Client) CalculateQuote(ctx context.Context, req usecase.QuoteRequest) (usecase.Quote, error) {
	payload := map[string]any{
		"lines":       req.Lines,
		"addressId":   req.AddressID,
		"orderType":   req.OrderType,
		"deliveryLat": req.DeliveryLat,
		"deliveryLng": req.DeliveryLng,
		"vendorLat":   req.VendorLat,
		"vendorLng":   req.VendorLng,
	}
	var resp quoteResp
	if err := c.do(ctx, http.MethodPost, "/orders/checkout/calculate", payload, &resp); err != nil {
		return usecase.Quote{}, err
	}
	return usecase.Quote{
		DeliveryFee:      resp.DeliveryFee,
		DistanceKm:       resp.Breakdown.Factors.DistanceKm,
		TimeSurcharge:    resp.Breakdown.Breakdown.TimeSurcharge,
		WeatherSurcharge: resp.Breakdown.Breakdown.WeatherSurcharge,
		Currency:         resp.Currency,
	}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req usecase.PlaceOrderRequest) (usecase.PlacedOrder, error) {
	payload := map[string]any{
		"addressId":     req.AddressID,
		"instructions":  req.Instructions,
		"paymentMethod": req.PaymentMethod,
		"phone":         req.Phone,
		"deliveryFee":   req.DeliveryFee,
		"subtotal":      req.Subtotal,
		"taxAmount":     req.TaxAmount,
		"totalAmount":   req.TotalAmount,
	}
	var resp struct {
		OrderID     string `json:"orderId"`
		OrderNumber string `json:"orderNumber"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/checkout/place", payload, &resp); err != nil {
		return usecase.PlacedOrder{}, err
	}
	return usecase.PlacedOrder{OrderID: resp.OrderID, OrderNumber: resp.OrderNumber}, nil
}

// --- OrderService ---

type orderDTO struct {
	ID               string                `json:"orderId"`
	OrderNumber      string                `json:"orderNumber"`
	Status           string                `json:"status"`
	PaymentStatus    string                `json:"paymentStatus"`
	PaymentMethod    string                `json:"paymentMethod"`
	Subtotal         float64               `json:"subtotal"`
	TaxAmount        float64               `json:"taxAmount"`
	DeliveryFee      float64               `json:"deliveryFee"`
	TotalAmount      float64               `json:"totalAmount"`
	CreatedAt        time.Time             `json:"createdAt"`
	Vendor           struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"vendor"`
	DeliveryAgentID  *string               `json:"deliveryAgentId"`
	DeliveryAddress  domain.Address        `json:"deliveryAddress"`
	StatusTimestamps map[string]time.Time  `json:"statusTimestamps"`
	CanCancel        bool                  `json:"canCancel"`
	RemainingSeconds *int                  `json:"remainingSeconds"`
}

func (d orderDTO) toDomain() *domain.Order {
	o := &domain.Order{
		ID:               d.ID,
		OrderNumber:      d.OrderNumber,
		Status:           domain.Status(d.Status),
		PaymentStatus:    domain.PaymentStatus(d.PaymentStatus),
		PaymentMethod:    domain.PaymentMethod(d.PaymentMethod),
		Subtotal:         d.Subtotal,
		TaxAmount:        d.TaxAmount,
		DeliveryFee:      d.DeliveryFee,
		TotalAmount:      d.TotalAmount,
		CreatedAt:        d.CreatedAt,
		VendorID:         d.Vendor.ID,
		VendorName:       d.Vendor.Name,
		DeliveryAgentID:  d.DeliveryAgentID,
		DeliveryAddress:  d.DeliveryAddress,
		CanCancel:        d.CanCancel,
		RemainingSeconds: d.RemainingSeconds,
	}
	if len(d.StatusTimestamps) > 0 {
		o.StatusTimestamps = make(map[domain.Status]time.Time, len(d.StatusTimestamps))
		for k, v := range d.StatusTimestamps {
			o.StatusTimestamps[domain.Status(k)] = v
		}
	}
	return o
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var dto orderDTO
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) CanCancel(ctx context.Context, orderID string) (usecase.CancelWindowInfo, error) {
	var resp struct {
		CanCancel        bool `json:"canCancel"`
		RemainingSeconds *int `json:"remainingSeconds"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/can-cancel", nil, &resp); err != nil {
		return usecase.CancelWindowInfo{}, err
	}
	return usecase.CancelWindowInfo{CanCancel: resp.CanCancel, RemainingSeconds: resp.RemainingSeconds}, nil
}

func (c *Client) Cancel(ctx context.Context, orderID, reason string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	payload := map[string]string{"reason": reason}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &usecase.BackendError{StatusCode: http.StatusConflict, Message: "cancellation was not accepted"}
	}
	return nil
}

func (c *Client) Tracking(ctx context.Context, orderID string) (*usecase.TrackingInfo, error) {
	var resp struct {
		LatestLocation *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"latestLocation"`
		Note      string    `json:"note"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/tracking", nil, &resp); err != nil {
		return nil, err
	}
	ti := &usecase.TrackingInfo{Note: resp.Note, UpdatedAt: resp.UpdatedAt}
	if resp.LatestLocation != nil {
		ti.LatestLat = &resp.LatestLocation.Lat
		ti.LatestLng = &resp.LatestLocation.Lng
	}
	return ti, nil
}

func (c *Client) GenerateInvoice(ctx context.Context, orderID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/orders/"+url.PathEscape(orderID)+"/invoice", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.asBackendError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) EmailInvoice(ctx context.Context, orderID string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/invoice/email", struct{}{}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &usecase.BackendError{StatusCode: http.StatusBadGateway, Message: "invoice email was not accepted"}
	}
	return nil
}

// --- AddressService ---

func (c *Client) ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	var resp struct {
		Addresses []domain.Address `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID)+"/addresses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	var resp struct {
		FormattedAddress string `json:"formattedAddress"`
	}
	path := fmt.Sprintf("/geocode/reverse?lat=%g&lng=%g", lat, lng)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.FormattedAddress, nil
}

var (
	_ usecase.CheckoutService = (*Client)(nil)
	_ usecase.OrderService    = (*Client)(nil)
	_ usecase.AddressService  = (*Client)(nil)
)
