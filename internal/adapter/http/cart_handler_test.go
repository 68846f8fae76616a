package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
)

type memCartStore struct {
	m map[string][]domain.CartLine
}

func newMemCartStore() *memCartStore { return &memCartStore{m: map[string][]domain.CartLine{}} }

func (s *memCartStore) Load(_ context.Context, cartID string) ([]domain.CartLine, error) {
	return append([]domain.CartLine(nil), s.m[cartID]...), nil
}
func (s *memCartStore) Save(_ context.Context, cartID string, lines []domain.CartLine) error {
	s.m[cartID] = append([]domain.CartLine(nil), lines...)
	return nil
}
func (s *memCartStore) Clear(_ context.Context, cartID string) error {
	delete(s.m, cartID)
	return nil
}

func newCartRouter(store *memCartStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCartHandler(store)
	r := gin.New()
	// stand-in for the auth middleware
	r.Use(func(c *gin.Context) { c.Set("customerId", "cust-1") })
	r.GET("/cart", h.GetCart)
	r.POST("/cart/lines", h.AddLine)
	r.PATCH("/cart/lines/:priceId", h.UpdateQuantity)
	r.DELETE("/cart/lines/:priceId", h.RemoveLine)
	r.POST("/cart/keep-vendor", h.KeepVendor)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func line(priceID, vendorID string, price float64, qty int) domain.CartLine {
	return domain.CartLine{
		PriceID: priceID, ItemName: "Rice & Curry", VendorID: vendorID,
		VendorName: "Kitchen " + vendorID, UnitPrice: price, Quantity: qty,
	}
}

func TestAddLine_MergesQuantity(t *testing.T) {
	store := newMemCartStore()
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodPost, "/cart/lines", line("p1", "v1", 450, 2))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cart/lines", line("p1", "v1", 450, 3))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.m["cust-1"], 1)
	assert.Equal(t, 5, store.m["cust-1"][0].Quantity)
}

func TestAddLine_RejectsOverMax(t *testing.T) {
	store := newMemCartStore()
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodPost, "/cart/lines", line("p1", "v1", 450, 21))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, store.m["cust-1"])
}

func TestUpdateQuantity_OutOfRangeLeavesLine(t *testing.T) {
	store := newMemCartStore()
	store.m["cust-1"] = []domain.CartLine{line("p1", "v1", 450, 2)}
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodPatch, "/cart/lines/p1", gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code) // binding rejects zero

	w = doJSON(t, r, http.MethodPatch, "/cart/lines/p1", gin.H{"quantity": 25})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 2, store.m["cust-1"][0].Quantity)
}

func TestGetCart_GroupsByVendor(t *testing.T) {
	store := newMemCartStore()
	store.m["cust-1"] = []domain.CartLine{
		line("p1", "v1", 450, 2),
		line("p2", "v1", 300, 1),
		line("p3", "v2", 700, 1),
	}
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Groups, 2)
	assert.True(t, view.MultiVendor)
	assert.Equal(t, 1900.0, view.Subtotal)
}

func TestKeepVendor_DropsOtherCooks(t *testing.T) {
	store := newMemCartStore()
	store.m["cust-1"] = []domain.CartLine{
		line("p1", "v1", 450, 2),
		line("p3", "v2", 700, 1),
	}
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodPost, "/cart/keep-vendor", gin.H{"vendorId": "v2"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.m["cust-1"], 1)
	assert.Equal(t, "v2", store.m["cust-1"][0].VendorID)
}

func TestRemoveLine_NotFound(t *testing.T) {
	store := newMemCartStore()
	store.m["cust-1"] = []domain.CartLine{line("p1", "v1", 450, 2)}
	r := newCartRouter(store)

	w := doJSON(t, r, http.MethodDelete, "/cart/lines/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, store.m["cust-1"], 1)
}
