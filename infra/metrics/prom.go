package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/letstalk-code/routecare/core/events"
	coremetrics "github.com/letstalk-code/routecare/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	transitions *prometheus.CounterVec
	assignments *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	queue       *prometheus.GaugeVec
	available   prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_events_total",
		Help: "Total number of trip lifecycle events",
	}, []string{"event", "to_status"})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_assignments_total",
		Help: "Driver assignments and releases",
	}, []string{"assigned"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trip_duration_seconds",
		Help:    "Time between passenger pickup and dropoff",
		Buckets: prometheus.ExponentialBuckets(300, 2, 8),
	}, []string{"trip_type", "on_time"})
	queue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_queue_depth",
		Help: "Number of trips in the dispatch queue per view",
	}, []string{"view"})
	available := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_available_drivers",
		Help: "Number of drivers currently available for assignment",
	})

	s := &PromSink{}
	if err := registerCounterVec(reg, transitions, &s.transitions); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, assignments, &s.assignments); err != nil {
		return nil, err
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	s.duration = duration
	if err := reg.Register(queue); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			queue = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	s.queue = queue
	if err := reg.Register(available); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			available = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	s.available = available

	return s, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec, dst **prometheus.CounterVec) error {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		c = are.ExistingCollector.(*prometheus.CounterVec)
	}
	*dst = c
	return nil
}

// RecordTransition increments the event counter for the applied transition.
func (s *PromSink) RecordTransition(ev events.TransitionEvent) error {
	s.transitions.WithLabelValues(ev.Event.String(), ev.To.String()).Inc()
	return nil
}

// RecordAssignment counts assignment and release events.
func (s *PromSink) RecordAssignment(ev events.AssignmentEvent) error {
	s.assignments.WithLabelValues(strconv.FormatBool(ev.Assigned)).Inc()
	return nil
}

// RecordTripDuration records the pickup-to-dropoff duration histogram.
func (s *PromSink) RecordTripDuration(durations []coremetrics.TripDuration) error {
	for _, d := range durations {
		s.duration.WithLabelValues(d.Type.String(), strconv.FormatBool(d.OnTime)).Observe(d.Duration.Seconds())
	}
	return nil
}

// RecordQueueDepth sets the queue gauge for the sampled view.
func (s *PromSink) RecordQueueDepth(ev coremetrics.QueueDepthEvent) error {
	s.queue.WithLabelValues(ev.View).Set(float64(ev.Depth))
	return nil
}

// RecordFleetSnapshot sets the available driver gauge.
func (s *PromSink) RecordFleetSnapshot(ev coremetrics.FleetSnapshotEvent) error {
	if s.available != nil {
		s.available.Set(float64(ev.AvailableDrivers))
	}
	return nil
}
