package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout submissions and the order persistence call.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
	persistence *prometheus.CounterVec
	persistTime *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	persistence := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_persistence_total",
		Help: "Order persistence attempts by outcome.",
	}, []string{"outcome"})
	persistTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_persistence_duration_seconds",
		Help:    "Time spent waiting on order persistence.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
	}, []string{"outcome"})
	reg.MustRegister(submissions, persistence, persistTime)
	return &CheckoutMetrics{
		submissions: submissions,
		persistence: persistence,
		persistTime: persistTime,
	}
}

// ObserveSubmission counts one submit call.
func (c *CheckoutMetrics) ObserveSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObservePersistence counts one persistence outcome and how long it took.
func (c *CheckoutMetrics) ObservePersistence(outcome string, elapsed time.Duration) {
	if c == nil || c.persistence == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.persistence.WithLabelValues(label).Inc()
	c.persistTime.WithLabelValues(label).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
