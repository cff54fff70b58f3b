package model

import (
	"fmt"
	"time"
)

// EventType identifies a trip lifecycle event. Events are the append-only
// audit trail; actual pickup/dropoff times are derived from them.
type EventType int

const (
	EventTripCreated EventType = iota
	EventTripAssigned
	EventDriverUnassigned
	EventEnRoutePickup
	EventArrivedPickup
	EventPassengerOnboard
	EventEnRouteDropoff
	EventArrivedDropoff
	EventTripCompleted
	EventTripCancelled
)

// GeoPoint is an optional event location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TripEvent is one append-only log entry. Never mutated or deleted.
type TripEvent struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Location  *GeoPoint `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by"`
}

func (t EventType) String() string {
	switch t {
	case EventTripCreated:
		return "trip_created"
	case EventTripAssigned:
		return "trip_assigned"
	case EventDriverUnassigned:
		return "driver_unassigned"
	case EventEnRoutePickup:
		return "en_route_pickup"
	case EventArrivedPickup:
		return "arrived_pickup"
	case EventPassengerOnboard:
		return "passenger_onboard"
	case EventEnRouteDropoff:
		return "en_route_dropoff"
	case EventArrivedDropoff:
		return "arrived_dropoff"
	case EventTripCompleted:
		return "trip_completed"
	case EventTripCancelled:
		return "trip_cancelled"
	default:
		return "unknown"
	}
}

// ParseEventType converts a wire string to an EventType.
func ParseEventType(s string) (EventType, error) {
	for t := EventTripCreated; t <= EventTripCancelled; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, ValidationError{Field: "type", Reason: fmt.Sprintf("unknown event type %q", s)}
}

func (t EventType) MarshalJSON() ([]byte, error) { return marshalEnum(t.String()) }

func (t *EventType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, t, ParseEventType)
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, t, ParseEventType)
}
