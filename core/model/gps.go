package model

import "time"

// GPSPing is one telemetry sample from a driver's device. Append-only;
// the most recent ping wins for current-location queries.
type GPSPing struct {
	DriverID  string    `json:"driver_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   float64   `json:"heading"` // degrees
	Speed     float64   `json:"speed"`   // mph
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects pings with missing or out-of-range coordinates.
func (p GPSPing) Validate() error {
	if p.DriverID == "" {
		return ValidationError{Field: "driver_id", Reason: "required"}
	}
	if p.Lat == 0 && p.Lng == 0 {
		return ValidationError{Field: "coordinates", Reason: "required"}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return ValidationError{Field: "lat", Reason: "out of range"}
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ValidationError{Field: "lng", Reason: "out of range"}
	}
	return nil
}
