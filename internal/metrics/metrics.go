package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carries the RED-style instruments the workflows record into.
type Metrics struct {
	CheckoutRequests *prometheus.CounterVec
	CheckoutDuration prometheus.Histogram
	ProviderRequests *prometheus.CounterVec
	ProviderDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_requests_total",
				Help: "Total number of checkout attempts.",
			},
			[]string{"outcome"},
		),
		CheckoutDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "checkout_duration_seconds",
				Help:    "Duration of the checkout workflow in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_provider_requests_total",
				Help: "Total number of payment provider calls.",
			},
			[]string{"outcome"},
		),
		ProviderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payment_provider_request_duration_seconds",
				Help:    "Duration of payment provider calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.CheckoutRequests, m.CheckoutDuration, m.ProviderRequests, m.ProviderDuration)
	return m
}
