package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	suggestionsComputed prometheus.Counter
	queueQueries        *prometheus.CounterVec
)

func newCollectors() (prometheus.Counter, *prometheus.CounterVec) {
	sug := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driver_suggestions_computed_total",
			Help: "Number of driver suggestion rankings computed",
		},
	)
	q := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_queries_total",
			Help: "Number of dispatch queue queries",
		},
		[]string{"view"},
	)
	return sug, q
}

func init() {
	suggestionsComputed, queueQueries = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(suggestionsComputed, queueQueries)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	suggestionsComputed, queueQueries = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
