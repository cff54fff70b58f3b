package mqtt

import "time"

// AssignmentOrder is the payload sent to a driver's device when a trip is
// assigned to them.
type AssignmentOrder struct {
	TripID        string    `json:"trip_id"`
	PickupAddress string    `json:"pickup_address"`
	PickupLat     float64   `json:"pickup_lat,omitempty"`
	PickupLng     float64   `json:"pickup_lng,omitempty"`
	PickupTime    time.Time `json:"pickup_time"`
	Priority      string    `json:"priority"`
}

// Client represents an MQTT client capable of notifying drivers of new
// assignments and waiting for acknowledgments from their devices.
type Client interface {
	// NotifyAssignment sends an assignment order to the given driver and
	// returns the message identifier used to track the acknowledgment.
	NotifyAssignment(driverID string, order AssignmentOrder) (messageID string, err error)

	// WaitForAck waits for an acknowledgment for the provided message
	// identifier or until the timeout expires.
	WaitForAck(messageID string, timeout time.Duration) (bool, error)
}
