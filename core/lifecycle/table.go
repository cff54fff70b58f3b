package lifecycle

import "github.com/letstalk-code/routecare/core/model"

// transition describes one row of the lifecycle table: the statuses an event
// may fire from and the status it produces.
type transition struct {
	from []model.TripStatus
	to   model.TripStatus
}

// transitions covers every applyable event. trip_created is intentionally
// absent: trips enter the machine through CreateTrip, not Apply.
// driver_unassigned and trip_cancelled are handled separately because their
// precondition depends on more than the current status.
var transitions = map[model.EventType]transition{
	model.EventTripAssigned: {
		from: []model.TripStatus{model.StatusUnassigned, model.StatusAssigned},
		to:   model.StatusAssigned,
	},
	model.EventEnRoutePickup: {
		from: []model.TripStatus{model.StatusAssigned},
		to:   model.StatusEnRoutePickup,
	},
	model.EventArrivedPickup: {
		from: []model.TripStatus{model.StatusEnRoutePickup},
		to:   model.StatusArrivedPickup,
	},
	model.EventPassengerOnboard: {
		from: []model.TripStatus{model.StatusArrivedPickup},
		to:   model.StatusOnTrip,
	},
	// Event-only: logged for the audit trail, status stays on_trip.
	model.EventEnRouteDropoff: {
		from: []model.TripStatus{model.StatusOnTrip},
		to:   model.StatusOnTrip,
	},
	model.EventArrivedDropoff: {
		from: []model.TripStatus{model.StatusOnTrip},
		to:   model.StatusArrivedDropoff,
	},
	model.EventTripCompleted: {
		from: []model.TripStatus{model.StatusArrivedDropoff},
		to:   model.StatusCompleted,
	},
}

// eventOrder fixes the order of the Allowed list in InvalidTransitionError.
var eventOrder = []model.EventType{
	model.EventTripAssigned,
	model.EventDriverUnassigned,
	model.EventEnRoutePickup,
	model.EventArrivedPickup,
	model.EventPassengerOnboard,
	model.EventEnRouteDropoff,
	model.EventArrivedDropoff,
	model.EventTripCompleted,
	model.EventTripCancelled,
}

func eventAllowed(t model.Trip, ev model.EventType) bool {
	switch ev {
	case model.EventDriverUnassigned:
		return t.DriverID != "" && !t.Status.IsTerminal()
	case model.EventTripCancelled:
		return !t.Status.IsTerminal()
	default:
		tr, ok := transitions[ev]
		if !ok {
			return false
		}
		for _, s := range tr.from {
			if t.Status == s {
				return true
			}
		}
		return false
	}
}

// allowedEvents lists the events that may fire from the trip's current state.
func allowedEvents(t model.Trip) []model.EventType {
	var res []model.EventType
	for _, ev := range eventOrder {
		if eventAllowed(t, ev) {
			res = append(res, ev)
		}
	}
	return res
}
