package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CroosRRAF/ChefSync-sub012/internal/adapter/http/middleware"
	"github.com/CroosRRAF/ChefSync-sub012/internal/logging"
)

func NewRouter(cart *CartHandler, checkout *CheckoutHandler, orders *OrderHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", authz.Require())
	{
		v1.GET("/cart", cart.GetCart)
		v1.POST("/cart/lines", cart.AddLine)
		v1.PATCH("/cart/lines/:priceId", cart.UpdateQuantity)
		v1.DELETE("/cart/lines/:priceId", cart.RemoveLine)
		v1.POST("/cart/keep-vendor", cart.KeepVendor)

		v1.POST("/checkout/sessions", checkout.StartSession)
		v1.GET("/checkout/sessions/:id", checkout.GetSession)
		v1.POST("/checkout/sessions/:id/address", checkout.SelectAddress)
		v1.POST("/checkout/sessions/:id/current-location", checkout.UseCurrentLocation)
		v1.POST("/checkout/sessions/:id/step", checkout.GoToStep)
		v1.POST("/checkout/sessions/:id/payment", checkout.SelectPayment)
		v1.POST("/checkout/sessions/:id/contact", checkout.SetContact)
		v1.POST("/checkout/sessions/:id/keep-vendor", checkout.KeepVendor)
		v1.POST("/checkout/sessions/:id/place", checkout.PlaceOrder)

		v1.GET("/orders/:id", orders.GetOrder)
		v1.POST("/orders/:id/track", orders.StartTracking)
		v1.DELETE("/orders/:id/track", orders.StopTracking)
		v1.GET("/orders/:id/cancellable", orders.Cancellable)
		v1.POST("/orders/:id/cancel", orders.CancelOrder)
		v1.GET("/orders/:id/tracking", orders.Tracking)
		v1.GET("/orders/:id/invoice", orders.DownloadInvoice)
		v1.POST("/orders/:id/invoice/email", orders.EmailInvoice)
	}

	return r
}
