package llm

import "github.com/prometheus/client_golang/prometheus"

var (
	// llmReqs counts completion calls by provider and outcome
	// (ok|error|timeout|canceled|not_configured).
	llmReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of completion provider calls.",
		},
		[]string{"provider", "outcome"},
	)

	// llmLat records completion latency in seconds. Provider calls are much
	// slower than HTTP handlers, hence the wider buckets.
	llmLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of completion provider calls in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(llmReqs, llmLat)
}
