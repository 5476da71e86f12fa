package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and latency.
type CheckoutMetrics struct {
	duration        *prometheus.HistogramVec
	ordersCreated   *prometheus.CounterVec
	checkoutFailure *prometheus.CounterVec
	paymentDeclines prometheus.Counter
	statusChanges   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"order_type"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully placed.",
	}, []string{"order_type"})
	checkoutFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Failed checkout attempts by error code.",
	}, []string{"code"})
	paymentDeclines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_declines_total",
		Help: "Payment authorizations declined by the gateway.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	reg.MustRegister(duration, ordersCreated, checkoutFailure, paymentDeclines, statusChanges)
	return &CheckoutMetrics{
		duration:        duration,
		ordersCreated:   ordersCreated,
		checkoutFailure: checkoutFailure,
		paymentDeclines: paymentDeclines,
		statusChanges:   statusChanges,
	}
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(orderType string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(orderType)).Observe(duration.Seconds())
}

// IncOrderCreated increments the placed-order counter.
func (c *CheckoutMetrics) IncOrderCreated(orderType string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(orderType)).Inc()
}

// IncCheckoutFailure increments the failure counter for the given error code.
func (c *CheckoutMetrics) IncCheckoutFailure(code string) {
	if c == nil || c.checkoutFailure == nil {
		return
	}
	c.checkoutFailure.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncPaymentDecline increments the gateway decline counter.
func (c *CheckoutMetrics) IncPaymentDecline() {
	if c == nil || c.paymentDeclines == nil {
		return
	}
	c.paymentDeclines.Inc()
}

// IncStatusChange increments the transition counter for a from/to pair.
func (c *CheckoutMetrics) IncStatusChange(from, to string) {
	if c == nil || c.statusChanges == nil {
		return
	}
	c.statusChanges.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
