package model

import "fmt"

// VehicleType classifies a transport vehicle.
type VehicleType int

const (
	VehicleSedan VehicleType = iota
	VehicleWheelchairVan
	VehicleAmbulette
)

// Vehicle represents a fleet vehicle. Many drivers may reference the same
// vehicle as long as they are not concurrently on a trip.
type Vehicle struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Type                 VehicleType `json:"type"`
	LicensePlate         string      `json:"license_plate"`
	Capacity             int         `json:"capacity"`
	WheelchairAccessible bool        `json:"wheelchair_accessible"`
	Mileage              float64     `json:"mileage"` // monotonically non-decreasing
}

// CanCarry reports whether the vehicle supports the passenger's mobility level.
// Stretcher transport requires an ambulette; wheelchair transport requires an
// accessible vehicle.
func (v Vehicle) CanCarry(level MobilityLevel) bool {
	switch level {
	case MobilityStretcher:
		return v.Type == VehicleAmbulette
	case MobilityWheelchair:
		return v.WheelchairAccessible
	default:
		return true
	}
}

func (t VehicleType) String() string {
	switch t {
	case VehicleSedan:
		return "sedan"
	case VehicleWheelchairVan:
		return "wheelchair_van"
	case VehicleAmbulette:
		return "ambulette"
	default:
		return "unknown"
	}
}

// ParseVehicleType converts a wire string to a VehicleType.
func ParseVehicleType(s string) (VehicleType, error) {
	switch s {
	case "sedan":
		return VehicleSedan, nil
	case "wheelchair_van":
		return VehicleWheelchairVan, nil
	case "ambulette":
		return VehicleAmbulette, nil
	}
	return 0, ValidationError{Field: "type", Reason: fmt.Sprintf("unknown vehicle type %q", s)}
}

func (t VehicleType) MarshalJSON() ([]byte, error) { return marshalEnum(t.String()) }

func (t *VehicleType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, t, ParseVehicleType)
}

func (t VehicleType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *VehicleType) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, t, ParseVehicleType)
}
