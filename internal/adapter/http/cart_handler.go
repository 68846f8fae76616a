package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/http/middleware"
	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

// CartHandler exposes the cart session. Carts are keyed by the authenticated
// customer id, one open cart per customer.
type CartHandler struct {
	carts usecase.CartStore
}

func NewCartHandler(carts usecase.CartStore) *CartHandler {
	return &CartHandler{carts: carts}
}

type vendorGroup struct {
	VendorID   string            `json:"vendorId"`
	VendorName string            `json:"vendorName"`
	Lines      []domain.CartLine `json:"lines"`
	Subtotal   float64           `json:"subtotal"`
}

type cartView struct {
	Groups      []vendorGroup `json:"groups"`
	Subtotal    float64       `json:"subtotal"`
	MultiVendor bool          `json:"multiVendor"`
}

func buildCartView(lines []domain.CartLine) cartView {
	groups := domain.PartitionByVendor(lines)
	view := cartView{
		Groups:      make([]vendorGroup, 0, len(groups)),
		Subtotal:    domain.CartSubtotal(lines),
		MultiVendor: len(groups) > 1,
	}
	for id, ls := range groups {
		view.Groups = append(view.Groups, vendorGroup{
			VendorID:   id,
			VendorName: ls[0].VendorName,
			Lines:      ls,
			Subtotal:   domain.CartSubtotal(ls),
		})
	}
	return view
}

func (h *CartHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 2*time.Second)
}

// GetCart returns the cart grouped by cook, with per-group subtotals.
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	lines, err := h.carts.Load(ctx, middleware.CustomerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}
	c.JSON(http.StatusOK, buildCartView(lines))
}

// AddLine adds a priced menu item, or bumps the quantity when the line is
// already in the cart.
func (h *CartHandler) AddLine(c *gin.Context) {
	var req domain.CartLine
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	if req.PriceID == "" || req.VendorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priceId and vendorId are required"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = domain.MinQuantity
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	cartID := middleware.CustomerID(c)
	lines, err := h.carts.Load(ctx, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}

	merged := false
	for i := range lines {
		if lines[i].PriceID == req.PriceID {
			if err := lines[i].SetQuantity(lines[i].Quantity + req.Quantity); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			merged = true
			break
		}
	}
	if !merged {
		fresh := req
		fresh.Quantity = 0
		if err := fresh.SetQuantity(req.Quantity); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		lines = append(lines, fresh)
	}

	if err := h.carts.Save(ctx, cartID, lines); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart save failed"})
		return
	}
	c.JSON(http.StatusOK, buildCartView(lines))
}

type updateQuantityReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

// UpdateQuantity sets a line's quantity. Out-of-range values are rejected and
// the stored quantity is left as it was.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	cartID := middleware.CustomerID(c)
	lines, err := h.carts.Load(ctx, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}

	priceID := c.Param("priceId")
	found := false
	for i := range lines {
		if lines[i].PriceID == priceID {
			if err := lines[i].SetQuantity(req.Quantity); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
		return
	}

	if err := h.carts.Save(ctx, cartID, lines); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart save failed"})
		return
	}
	c.JSON(http.StatusOK, buildCartView(lines))
}

func (h *CartHandler) RemoveLine(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	cartID := middleware.CustomerID(c)
	lines, err := h.carts.Load(ctx, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}

	priceID := c.Param("priceId")
	kept := lines[:0]
	for _, l := range lines {
		if l.PriceID != priceID {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(lines) {
		c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
		return
	}

	if err := h.carts.Save(ctx, cartID, kept); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart save failed"})
		return
	}
	c.JSON(http.StatusOK, buildCartView(kept))
}

type keepVendorReq struct {
	VendorID string `json:"vendorId" binding:"required"`
}

// KeepVendor resolves a multi-vendor cart by keeping only the chosen cook's
// lines.
func (h *CartHandler) KeepVendor(c *gin.Context) {
	var req keepVendorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	cartID := middleware.CustomerID(c)
	lines, err := h.carts.Load(ctx, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}

	kept := domain.KeepVendor(lines, req.VendorID)
	if len(kept) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no lines for that cook"})
		return
	}

	if err := h.carts.Save(ctx, cartID, kept); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart save failed"})
		return
	}
	c.JSON(http.StatusOK, buildCartView(kept))
}
