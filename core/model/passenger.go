package model

import "fmt"

// MobilityLevel is the passenger's required transport mode.
type MobilityLevel int

const (
	MobilityAmbulatory MobilityLevel = iota
	MobilityWheelchair
	MobilityStretcher
)

// Passenger holds demographic and insurance data for the person being
// transported. Once attached to a trip the record is immutable for audit
// purposes; edits create a new effective record.
type Passenger struct {
	MemberIDMasked    string        `json:"member_id_masked"`
	Name              string        `json:"name"`
	Phone             string        `json:"phone"`
	DateOfBirth       string        `json:"date_of_birth"`
	Gender            string        `json:"gender"`
	WeightLbs         float64       `json:"weight_lbs,omitempty"`
	MobilityLevel     MobilityLevel `json:"mobility_level"`
	SpecialNeeds      []string      `json:"special_needs,omitempty"`
	PreferredLanguage string        `json:"preferred_language,omitempty"`
	InsuranceProvider string        `json:"insurance_provider"`
	InsuranceID       string        `json:"insurance_id"`
	InsuranceStatus   string        `json:"insurance_status"`
}

func (m MobilityLevel) String() string {
	switch m {
	case MobilityAmbulatory:
		return "ambulatory"
	case MobilityWheelchair:
		return "wheelchair"
	case MobilityStretcher:
		return "stretcher"
	default:
		return "unknown"
	}
}

// ParseMobilityLevel converts a wire string to a MobilityLevel.
func ParseMobilityLevel(s string) (MobilityLevel, error) {
	switch s {
	case "ambulatory":
		return MobilityAmbulatory, nil
	case "wheelchair":
		return MobilityWheelchair, nil
	case "stretcher":
		return MobilityStretcher, nil
	}
	return 0, ValidationError{Field: "mobility_level", Reason: fmt.Sprintf("unknown mobility level %q", s)}
}

func (m MobilityLevel) MarshalJSON() ([]byte, error) { return marshalEnum(m.String()) }

func (m *MobilityLevel) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, m, ParseMobilityLevel)
}

func (m MobilityLevel) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *MobilityLevel) UnmarshalText(b []byte) error {
	return unmarshalEnumText(b, m, ParseMobilityLevel)
}
