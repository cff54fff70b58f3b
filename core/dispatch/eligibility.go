package dispatch

import (
	"fmt"

	"github.com/letstalk-code/routecare/core/model"
)

// equipmentCerts maps passenger special needs that require onboard equipment
// to the certification tag a driver must carry. Needs without an entry
// (e.g. "Service Animal") require no certification.
var equipmentCerts = map[string]string{
	"Oxygen Tank":     "Oxygen",
	"Cardiac Monitor": "BLS",
	"IV Pole":         "BLS",
}

func mobilityCert(level model.MobilityLevel) string {
	switch level {
	case model.MobilityWheelchair:
		return "Wheelchair Securement"
	case model.MobilityStretcher:
		return "Stretcher Certified"
	default:
		return ""
	}
}

// CheckEligibility applies the hard constraints for pairing a driver (and
// their vehicle) with a trip. It returns a reason when the pairing fails.
// Driver duty status is checked separately because "on_trip" is a soft
// exclusion for scoring but a hard one for assignment.
func CheckEligibility(d model.Driver, v model.Vehicle, t model.Trip) error {
	level := t.Passenger.MobilityLevel
	if !v.CanCarry(level) && !d.HasCertification(mobilityCert(level)) {
		return fmt.Errorf("vehicle %s cannot transport %s passenger", v.Type, level)
	}
	for _, need := range t.Passenger.SpecialNeeds {
		cert, ok := equipmentCerts[need]
		if !ok {
			continue
		}
		if !d.HasCertification(cert) {
			return fmt.Errorf("special need %q requires %s certification", need, cert)
		}
	}
	return nil
}
