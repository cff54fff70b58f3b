package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/letstalk-code/routecare/core/scheduler"
)

// WriteJSON writes the day-ahead plan to w in JSON format.
func WriteJSON(w io.Writer, plan []scheduler.PlannedTrip) error {
	enc := json.NewEncoder(w)
	return enc.Encode(plan)
}

// WriteCSV writes the day-ahead plan to w in CSV format with roster headers.
func WriteCSV(w io.Writer, plan []scheduler.PlannedTrip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"template_id", "patient", "driver_id", "pickup_at", "pickup_address", "dropoff_address"}); err != nil {
		return err
	}
	for _, p := range plan {
		rec := []string{
			p.TemplateID,
			p.PatientName,
			p.DriverID,
			p.PickupAt.Format(time.RFC3339),
			p.PickupAddress,
			p.DropoffAddress,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
