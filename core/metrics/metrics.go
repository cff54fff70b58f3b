package metrics

import (
	"time"

	"github.com/letstalk-code/routecare/core/events"
	"github.com/letstalk-code/routecare/core/model"
)

// MetricsSink records trip lifecycle transitions for observability purposes.
type MetricsSink interface {
	RecordTransition(ev events.TransitionEvent) error
}

// AssignmentRecorder records driver assignment and release events.
type AssignmentRecorder interface {
	RecordAssignment(ev events.AssignmentEvent) error
}

// TelemetryRecorder records driver GPS pings.
type TelemetryRecorder interface {
	RecordTelemetry(ev events.TelemetryEvent) error
}

// QueueDepthEvent captures the size of a dispatch queue view at query time.
type QueueDepthEvent struct {
	View  string
	Depth int
	Time  time.Time
}

// QueueDepthRecorder records dispatch queue depth samples.
type QueueDepthRecorder interface {
	RecordQueueDepth(ev QueueDepthEvent) error
}

// SuggestionEvent captures a driver ranking computed for a trip.
type SuggestionEvent struct {
	TripID     string
	Candidates int
	TopScore   float64
	Time       time.Time
}

// SuggestionRecorder records driver suggestion computations.
type SuggestionRecorder interface {
	RecordSuggestion(ev SuggestionEvent) error
}

// FleetSnapshotEvent is a periodic snapshot of driver availability.
type FleetSnapshotEvent struct {
	ActiveDrivers    int
	AvailableDrivers int
	Time             time.Time
}

// FleetSnapshotRecorder records fleet availability snapshots.
type FleetSnapshotRecorder interface {
	RecordFleetSnapshot(ev FleetSnapshotEvent) error
}

// TripDuration represents the time a completed trip spent between pickup and dropoff.
type TripDuration struct {
	TripID   string
	Type     model.TripType
	Duration time.Duration
	OnTime   bool
}

// TripDurationRecorder is implemented by sinks able to record trip durations.
type TripDurationRecorder interface {
	RecordTripDuration(durations []TripDuration) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTransition(events.TransitionEvent) error { return nil }

func (NopSink) RecordAssignment(events.AssignmentEvent) error  { return nil }
func (NopSink) RecordTelemetry(events.TelemetryEvent) error    { return nil }
func (NopSink) RecordQueueDepth(QueueDepthEvent) error         { return nil }
func (NopSink) RecordSuggestion(SuggestionEvent) error         { return nil }
func (NopSink) RecordFleetSnapshot(FleetSnapshotEvent) error   { return nil }
func (NopSink) RecordTripDuration([]TripDuration) error        { return nil }
