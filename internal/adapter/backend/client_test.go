package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, "checkout-api-test", slog.Default())
}

func TestCalculateQuote_ParsesNestedBreakdown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders/checkout/calculate", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "addr-1", body["addressId"])
		assert.Equal(t, "regular", body["orderType"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"deliveryFee": 110.0,
			"currency": "LKR",
			"deliveryFeeBreakdown": {
				"factors": {"distanceKm": 8.0},
				"breakdown": {"timeSurcharge": 9.5, "weatherSurcharge": 9.5}
			}
		}`))
	})

	q, err := c.CalculateQuote(context.Background(), usecase.QuoteRequest{
		Lines:     []usecase.QuoteLine{{PriceID: "p1", Quantity: 2}},
		AddressID: "addr-1",
		OrderType: "regular",
	})
	require.NoError(t, err)
	assert.Equal(t, 110.0, q.DeliveryFee)
	assert.Equal(t, 8.0, q.DistanceKm)
	assert.Equal(t, 9.5, q.TimeSurcharge)
	assert.Equal(t, 9.5, q.WeatherSurcharge)
	assert.Equal(t, "LKR", q.Currency)
}

func TestPlaceOrder_BackendErrorVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "Cook is offline and cannot accept orders"}`))
	})

	_, err := c.PlaceOrder(context.Background(), usecase.PlaceOrderRequest{})
	var be *usecase.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusUnprocessableEntity, be.StatusCode)
	assert.Equal(t, "Cook is offline and cannot accept orders", be.Message)
}

func TestGetOrder_MapsDTO(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/ord-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"orderId": "ord-9",
			"orderNumber": "CS-1042",
			"status": "confirmed",
			"paymentStatus": "pending",
			"paymentMethod": "cash",
			"subtotal": 1000,
			"taxAmount": 100,
			"deliveryFee": 95,
			"totalAmount": 1195,
			"vendor": {"id": "v1", "name": "Aunty Seela's Kitchen"},
			"statusTimestamps": {"pending": "2025-04-01T10:00:00Z", "confirmed": "2025-04-01T10:04:00Z"},
			"canCancel": true,
			"remainingSeconds": 412
		}`))
	})

	o, err := c.GetOrder(context.Background(), "ord-9")
	require.NoError(t, err)
	assert.Equal(t, "CS-1042", o.OrderNumber)
	assert.Equal(t, "confirmed", string(o.Status))
	assert.Equal(t, 1195.0, o.TotalAmount)
	assert.Equal(t, "Aunty Seela's Kitchen", o.VendorName)
	require.NotNil(t, o.RemainingSeconds)
	assert.Equal(t, 412, *o.RemainingSeconds)
	assert.Len(t, o.StatusTimestamps, 2)
	assert.True(t, o.CanCancel)
}

func TestCancel_SuccessFlagRequired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/ord-9/cancel", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["reason"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false}`))
	})

	err := c.Cancel(context.Background(), "ord-9", "changed my mind")
	var be *usecase.BackendError
	require.ErrorAs(t, err, &be)
}

func TestCanCancel_OmittedRemainingSeconds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"canCancel": true}`))
	})

	info, err := c.CanCancel(context.Background(), "ord-9")
	require.NoError(t, err)
	assert.True(t, info.CanCancel)
	assert.Nil(t, info.RemainingSeconds)
}

func TestReverseGeocode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/reverse", r.URL.Path)
		assert.Equal(t, "6.9271", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"formattedAddress": "42 Galle Road, Colombo 03"}`))
	})

	got, err := c.ReverseGeocode(context.Background(), 6.9271, 79.8612)
	require.NoError(t, err)
	assert.Equal(t, "42 Galle Road, Colombo 03", got)
}

func TestGenerateInvoice_BinaryBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 test"))
	})

	doc, err := c.GenerateInvoice(context.Background(), "ord-9")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(doc))
}
