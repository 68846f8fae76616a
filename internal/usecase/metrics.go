package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_fee_fallback_total",
		Help: "Fee estimates served by the local schedule after a remote failure",
	})

	orderPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_polls_total",
		Help: "Order status polls issued by the lifecycle tracker",
	})

	deliveredNotices = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_delivered_notifications_total",
		Help: "One-time delivered notifications emitted",
	})

	cancellations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_cancellations_total",
		Help: "Customer cancellations accepted by the backend",
	})
)
