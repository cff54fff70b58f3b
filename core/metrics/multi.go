package metrics

import "github.com/letstalk-code/routecare/core/events"

// MultiSink fans out recorded events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTransition forwards the transition to all sinks, returning the first error encountered.
func (m *MultiSink) RecordTransition(ev events.TransitionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAssignment forwards assignment events to sinks implementing AssignmentRecorder.
func (m *MultiSink) RecordAssignment(ev events.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AssignmentRecorder); ok {
			if err := rec.RecordAssignment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTelemetry forwards GPS pings to sinks implementing TelemetryRecorder.
func (m *MultiSink) RecordTelemetry(ev events.TelemetryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TelemetryRecorder); ok {
			if err := rec.RecordTelemetry(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordQueueDepth forwards queue depth samples.
func (m *MultiSink) RecordQueueDepth(ev QueueDepthEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(QueueDepthRecorder); ok {
			if err := rec.RecordQueueDepth(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSuggestion forwards suggestion computations.
func (m *MultiSink) RecordSuggestion(ev SuggestionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SuggestionRecorder); ok {
			if err := rec.RecordSuggestion(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSnapshot forwards fleet availability snapshots.
func (m *MultiSink) RecordFleetSnapshot(ev FleetSnapshotEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetSnapshotRecorder); ok {
			if err := rec.RecordFleetSnapshot(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTripDuration forwards trip durations.
func (m *MultiSink) RecordTripDuration(durations []TripDuration) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripDurationRecorder); ok {
			if err := rec.RecordTripDuration(durations); err != nil {
				return err
			}
		}
	}
	return nil
}
