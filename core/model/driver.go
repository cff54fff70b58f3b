package model

import "fmt"

// DriverStatus is the duty state of a driver.
type DriverStatus int

const (
	DriverAvailable DriverStatus = iota
	DriverOnTrip
	DriverOffDuty
	DriverBreak
)

// Shift is the driver's working window in HH:mm local time.
type Shift struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DriverStats holds rolling per-day performance counters. They are mutated
// by the lifecycle machine on trip completion and reset externally on the
// daily boundary.
type DriverStats struct {
	TripsToday int     `json:"trips_today"`
	OnTimeRate float64 `json:"on_time_rate"` // percentage, 0-100
	TotalMiles float64 `json:"total_miles"`
}

// Driver represents a transport driver. status == on_trip means the driver
// currently holds exactly one active trip.
type Driver struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Initials       string       `json:"initials"`
	Phone          string       `json:"phone"`
	Status         DriverStatus `json:"status"`
	VehicleID      string       `json:"vehicle_id"`
	Certifications []string     `json:"certifications"`
	Zone           string       `json:"zone"`
	Shift          Shift        `json:"shift"`
	Stats          DriverStats  `json:"stats"`
}

// HasCertification reports whether the driver carries the given capability tag.
func (d Driver) HasCertification(tag string) bool {
	for _, c := range d.Certifications {
		if c == tag {
			return true
		}
	}
	return false
}

func (s DriverStatus) String() string {
	switch s {
	case DriverAvailable:
		return "available"
	case DriverOnTrip:
		return "on_trip"
	case DriverOffDuty:
		return "off_duty"
	case DriverBreak:
		return "break"
	default:
		return "unknown"
	}
}

// ParseDriverStatus converts a wire string to a DriverStatus.
func ParseDriverStatus(s string) (DriverStatus, error) {
	switch s {
	case "available":
		return DriverAvailable, nil
	case "on_trip":
		return DriverOnTrip, nil
	case "off_duty":
		return DriverOffDuty, nil
	case "break":
		return DriverBreak, nil
	}
	return 0, ValidationError{Field: "status", Reason: fmt.Sprintf("unknown driver status %q", s)}
}

func (s DriverStatus) MarshalJSON() ([]byte, error) { return marshalEnum(s.String()) }

func (s *DriverStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ParseDriverStatus)
}

func (s DriverStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *DriverStatus) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, s, ParseDriverStatus)
}
