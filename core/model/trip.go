package model

import (
	"fmt"
	"time"
)

// TripType classifies the medical purpose of a trip.
type TripType int

const (
	TripDischarge TripType = iota
	TripDialysis
	TripAppointment
	TripRecurring
)

// TripPriority defines the urgency of a trip. STAT trips are hospital
// discharges needing immediate transport and always sort first.
type TripPriority int

const (
	PriorityScheduled TripPriority = iota
	PriorityUrgent
	PriorityStat
)

// TripStatus is the lifecycle state of a trip.
type TripStatus int

const (
	StatusUnassigned TripStatus = iota
	StatusAssigned
	StatusEnRoutePickup
	StatusArrivedPickup
	StatusOnTrip
	StatusArrivedDropoff
	StatusCompleted
	StatusCancelled
)

// LateRisk is the precomputed likelihood of missing the scheduled window.
type LateRisk int

const (
	RiskLow LateRisk = iota
	RiskMedium
	RiskHigh
)

// TripStop is a pickup or dropoff point. Owned by the trip.
type TripStop struct {
	Address       string     `json:"address"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	ActualTime    *time.Time `json:"actual_time,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// TimeWindow is the scheduled pickup window.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Trip represents one patient transport from pickup to dropoff.
// Driver and vehicle are referenced, never owned; the passenger record is
// owned 1:1 and immutable once attached.
type Trip struct {
	ID                string       `json:"id"`
	Type              TripType     `json:"type"`
	Priority          TripPriority `json:"priority"`
	Status            TripStatus   `json:"status"`
	Passenger         Passenger    `json:"passenger"`
	Pickup            TripStop     `json:"pickup"`
	Dropoff           TripStop     `json:"dropoff"`
	ScheduledWindow   TimeWindow   `json:"scheduled_pickup_window"`
	DriverID          string       `json:"driver_id,omitempty"`
	VehicleID         string       `json:"vehicle_id,omitempty"`
	// PickupZone is the dispatch zone covering the pickup address, resolved
	// from zone settings when the trip is created. Used for the zone-match
	// scoring bonus.
	PickupZone        string       `json:"pickup_zone,omitempty"`
	EstimatedMiles    float64      `json:"estimated_miles"`
	EstimatedDuration int          `json:"estimated_duration"` // minutes
	LateRisk          LateRisk     `json:"late_risk"`
	Notes             string       `json:"notes,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	// Version increments on every store write and backs the optimistic
	// concurrency check in the lifecycle machine.
	Version uint64 `json:"-"`
}

// IsTerminal reports whether no further transition is possible.
func (s TripStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HoldsDriver reports whether a trip in this status claims driver capacity.
func (s TripStatus) HoldsDriver() bool {
	switch s {
	case StatusAssigned, StatusEnRoutePickup, StatusArrivedPickup, StatusOnTrip, StatusArrivedDropoff:
		return true
	}
	return false
}

// Validate checks that the trip is well formed enough to enter the store.
func (t Trip) Validate() error {
	if t.Pickup.Address == "" || t.Dropoff.Address == "" {
		return ValidationError{Field: "stops", Reason: "pickup and dropoff addresses are required"}
	}
	if t.ScheduledWindow.End.Before(t.ScheduledWindow.Start) {
		return ValidationError{Field: "scheduled_pickup_window", Reason: "window end precedes start"}
	}
	if t.EstimatedMiles < 0 {
		return ValidationError{Field: "estimated_miles", Reason: "must be non-negative"}
	}
	return nil
}

func (t TripType) String() string {
	switch t {
	case TripDischarge:
		return "discharge"
	case TripDialysis:
		return "dialysis"
	case TripAppointment:
		return "appointment"
	case TripRecurring:
		return "recurring"
	default:
		return "unknown"
	}
}

// ParseTripType converts a wire string to a TripType.
func ParseTripType(s string) (TripType, error) {
	switch s {
	case "discharge":
		return TripDischarge, nil
	case "dialysis":
		return TripDialysis, nil
	case "appointment":
		return TripAppointment, nil
	case "recurring":
		return TripRecurring, nil
	}
	return 0, ValidationError{Field: "type", Reason: fmt.Sprintf("unknown trip type %q", s)}
}

func (p TripPriority) String() string {
	switch p {
	case PriorityStat:
		return "STAT"
	case PriorityUrgent:
		return "urgent"
	case PriorityScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// ParseTripPriority converts a wire string to a TripPriority.
func ParseTripPriority(s string) (TripPriority, error) {
	switch s {
	case "STAT":
		return PriorityStat, nil
	case "urgent":
		return PriorityUrgent, nil
	case "scheduled":
		return PriorityScheduled, nil
	}
	return 0, ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", s)}
}

func (s TripStatus) String() string {
	switch s {
	case StatusUnassigned:
		return "unassigned"
	case StatusAssigned:
		return "assigned"
	case StatusEnRoutePickup:
		return "en_route_pickup"
	case StatusArrivedPickup:
		return "arrived_pickup"
	case StatusOnTrip:
		return "on_trip"
	case StatusArrivedDropoff:
		return "arrived_dropoff"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseTripStatus converts a wire string to a TripStatus.
func ParseTripStatus(s string) (TripStatus, error) {
	for st := StatusUnassigned; st <= StatusCancelled; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, ValidationError{Field: "status", Reason: fmt.Sprintf("unknown trip status %q", s)}
}

func (r LateRisk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseLateRisk converts a wire string to a LateRisk.
func ParseLateRisk(s string) (LateRisk, error) {
	switch s {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return 0, ValidationError{Field: "late_risk", Reason: fmt.Sprintf("unknown late risk %q", s)}
}

func (t TripType) MarshalJSON() ([]byte, error)     { return marshalEnum(t.String()) }
func (p TripPriority) MarshalJSON() ([]byte, error) { return marshalEnum(p.String()) }
func (s TripStatus) MarshalJSON() ([]byte, error)   { return marshalEnum(s.String()) }
func (r LateRisk) MarshalJSON() ([]byte, error)     { return marshalEnum(r.String()) }

func (t *TripType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, t, ParseTripType)
}

func (p *TripPriority) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, p, ParseTripPriority)
}

func (s *TripStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ParseTripStatus)
}

func (r *LateRisk) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, r, ParseLateRisk)
}

// Text forms cover YAML and other non-JSON decoders.

func (t TripType) MarshalText() ([]byte, error)     { return []byte(t.String()), nil }
func (p TripPriority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (s TripStatus) MarshalText() ([]byte, error)   { return []byte(s.String()), nil }
func (r LateRisk) MarshalText() ([]byte, error)     { return []byte(r.String()), nil }

func (t *TripType) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, t, ParseTripType)
}

func (p *TripPriority) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, p, ParseTripPriority)
}

func (s *TripStatus) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, s, ParseTripStatus)
}

func (r *LateRisk) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, r, ParseLateRisk)
}
