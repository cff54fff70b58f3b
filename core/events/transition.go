package events

import (
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// TransitionEvent is published after a trip transition is applied and logged.
type TransitionEvent struct {
	TripID   string
	Event    model.EventType
	From     model.TripStatus
	To       model.TripStatus
	DriverID string
	Time     time.Time
}

// AssignmentEvent is published when a driver gains or loses a trip.
// Assigned false means the driver was released (unassign, cancel, complete).
type AssignmentEvent struct {
	TripID    string
	DriverID  string
	VehicleID string
	Assigned  bool
	Time      time.Time
}

// TelemetryEvent is published for each accepted GPS ping.
type TelemetryEvent struct {
	Ping model.GPSPing
}
