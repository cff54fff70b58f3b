package lifecycle

import "github.com/prometheus/client_golang/prometheus"

var (
	transitionsApplied  *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec) {
	applied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_transitions_applied_total",
			Help: "Number of trip lifecycle transitions applied",
		},
		[]string{"event"},
	)
	rejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_transitions_rejected_total",
			Help: "Number of trip lifecycle transitions rejected",
		},
		[]string{"event"},
	)
	return applied, rejected
}

func init() {
	transitionsApplied, transitionsRejected = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers lifecycle metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(transitionsApplied, transitionsRejected)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	transitionsApplied, transitionsRejected = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
