package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching and experimentation Prometheus metrics.
var (
	RelaxationSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchlab",
			Name:      "search_relaxation_steps",
			Help:      "Threshold relaxation steps taken per neighbor search",
			Buckets:   []float64{0, 1, 2, 3, 4},
		},
	)

	NeighborsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchlab",
			Name:      "search_neighbors_returned",
			Help:      "Neighbors returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchlab",
			Name:      "experiment_assignments_total",
			Help:      "Algorithm version resolutions by source",
		},
		[]string{"role", "version", "source"}, // source: "sticky" / "test" / "active" / "fallback"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers matching metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RelaxationSteps)
	prometheus.MustRegister(NeighborsReturned)
	prometheus.MustRegister(AssignmentsTotal)
	engineMetricsRegistered = true
}
