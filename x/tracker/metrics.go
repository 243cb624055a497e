package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mjtimeline_requests_total",
			Help: "mutating requests by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mjtimeline_requests_in_flight",
			Help: "mutating requests waiting for settlement",
		},
	)

	settlementSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mjtimeline_settlement_seconds",
			Help:    "time from dispatch to settlement or failure",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"intent"},
	)
)

// RegisterMetrics exposes the tracker metrics on reg
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(requestsTotal, requestsInFlight, settlementSeconds)
}
