package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/http/middleware"
	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

// CheckoutHandler drives the checkout wizard over HTTP. Each mutation returns
// the refreshed session view so the client never has to re-fetch.
type CheckoutHandler struct {
	checkout *usecase.Checkout
}

func NewCheckoutHandler(checkout *usecase.Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

func (h *CheckoutHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	// fee estimation may hit the remote calculator, give it headroom
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// StartSession opens a checkout session over the customer's cart.
func (h *CheckoutHandler) StartSession(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	customerID := middleware.CustomerID(c)
	s, err := h.checkout.StartSession(ctx, customerID, customerID)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, s.ID, http.StatusCreated)
}

func (h *CheckoutHandler) GetSession(c *gin.Context) {
	h.renderView(c, c.Param("id"), http.StatusOK)
}

type selectAddressReq struct {
	AddressID string `json:"addressId" binding:"required"`
}

func (h *CheckoutHandler) SelectAddress(c *gin.Context) {
	var req selectAddressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.checkout.SelectAddress(ctx, c.Param("id"), req.AddressID); err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, c.Param("id"), http.StatusOK)
}

type currentLocationReq struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// UseCurrentLocation reverse-geocodes the device position into a prefilled
// address form. The client saves it through the address book and re-selects.
func (h *CheckoutHandler) UseCurrentLocation(c *gin.Context) {
	var req currentLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	addr, err := h.checkout.UseCurrentLocation(ctx, c.Param("id"), req.Latitude, req.Longitude)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

type gotoStepReq struct {
	Step string `json:"step" binding:"required"`
}

func (h *CheckoutHandler) GoToStep(c *gin.Context) {
	var req gotoStepReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	if err := h.checkout.GoTo(c.Param("id"), usecase.Step(req.Step)); err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, c.Param("id"), http.StatusOK)
}

type selectPaymentReq struct {
	Method string `json:"method" binding:"required"`
}

func (h *CheckoutHandler) SelectPayment(c *gin.Context) {
	var req selectPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	if err := h.checkout.SelectPayment(c.Param("id"), domain.PaymentMethod(req.Method)); err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, c.Param("id"), http.StatusOK)
}

type contactReq struct {
	Phone        string `json:"phone" binding:"required"`
	Instructions string `json:"instructions"`
}

func (h *CheckoutHandler) SetContact(c *gin.Context) {
	var req contactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	if err := h.checkout.SetContact(c.Param("id"), req.Phone, req.Instructions); err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, c.Param("id"), http.StatusOK)
}

func (h *CheckoutHandler) KeepVendor(c *gin.Context) {
	var req keepVendorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.checkout.KeepVendor(ctx, c.Param("id"), req.VendorID); err != nil {
		writeCheckoutError(c, err)
		return
	}
	h.renderView(c, c.Param("id"), http.StatusOK)
}

type placeOrderResp struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	placed, err := h.checkout.PlaceOrder(ctx, c.Param("id"))
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placeOrderResp{
		OrderID:     placed.OrderID,
		OrderNumber: placed.OrderNumber,
	})
}

func (h *CheckoutHandler) renderView(c *gin.Context, sessionID string, status int) {
	view, err := h.checkout.View(sessionID)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(status, view)
}

// writeCheckoutError maps domain errors onto HTTP statuses. Backend errors
// keep the server's message and status verbatim.
func writeCheckoutError(c *gin.Context, err error) {
	var be *usecase.BackendError
	if errors.As(err, &be) {
		c.JSON(be.StatusCode, gin.H{"error": be.Message})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrUnknownAddress):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMultipleVendors),
		errors.Is(err, domain.ErrQuantityOutOfRange),
		errors.Is(err, usecase.ErrAddressRequired),
		errors.Is(err, usecase.ErrPaymentRequired),
		errors.Is(err, usecase.ErrPaymentNotOperable),
		errors.Is(err, usecase.ErrPhoneRequired),
		errors.Is(err, usecase.ErrFeeRequired),
		errors.Is(err, usecase.ErrEmptyCart),
		errors.Is(err, usecase.ErrMissingLocation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
