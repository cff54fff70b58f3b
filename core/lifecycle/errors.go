package lifecycle

import (
	"fmt"
	"strings"

	"github.com/letstalk-code/routecare/core/model"
)

// InvalidTransitionError reports an event that is not valid from the trip's
// current status. The trip is left unmodified.
type InvalidTransitionError struct {
	TripID  string
	Current model.TripStatus
	Event   model.EventType
	Allowed []model.EventType
}

func (e InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		allowed[i] = a.String()
	}
	next := "none"
	if len(allowed) > 0 {
		next = strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("trip %s: cannot apply %s in status %s (allowed: %s)",
		e.TripID, e.Event, e.Current, next)
}

// IneligibleDriverError reports an assignment against a driver failing hard
// constraints.
type IneligibleDriverError struct {
	DriverID string
	Reason   string
}

func (e IneligibleDriverError) Error() string {
	return fmt.Sprintf("driver %s is ineligible: %s", e.DriverID, e.Reason)
}
