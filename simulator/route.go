package main

import (
	"math"
	"sync"
	"time"
)

// Route models a driver moving toward a waypoint at a fixed road speed.
// Once within snapDistance of the waypoint the position snaps onto it and
// the driver idles until a new waypoint is set.
type Route struct {
	Lat      float64
	Lng      float64
	SpeedMph float64

	targetLat float64
	targetLng float64
	moving    bool
	mu        sync.Mutex
}

const snapDistanceMiles = 0.05

// SetTarget points the route at a new waypoint.
func (r *Route) SetTarget(lat, lng float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targetLat = lat
	r.targetLng = lng
	r.moving = true
}

// Advance moves the position for the elapsed duration and returns the new
// coordinates, the heading in degrees and the current speed in mph.
func (r *Route) Advance(dt time.Duration) (lat, lng, heading, speed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.moving || dt <= 0 {
		return r.Lat, r.Lng, 0, 0
	}

	dLat := r.targetLat - r.Lat
	dLng := r.targetLng - r.Lng
	distMiles := math.Hypot(dLat, dLng) * milesPerDegree
	if distMiles <= snapDistanceMiles {
		r.Lat = r.targetLat
		r.Lng = r.targetLng
		r.moving = false
		return r.Lat, r.Lng, 0, 0
	}

	step := r.SpeedMph * dt.Hours()
	if step >= distMiles {
		r.Lat = r.targetLat
		r.Lng = r.targetLng
		r.moving = false
	} else {
		frac := step / distMiles
		r.Lat += dLat * frac
		r.Lng += dLng * frac
	}

	heading = math.Mod(math.Atan2(dLng, dLat)*180/math.Pi+360, 360)
	return r.Lat, r.Lng, heading, r.SpeedMph
}

// Moving reports whether the route still has distance to cover.
func (r *Route) Moving() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moving
}

// milesPerDegree is a flat-earth approximation good enough for a city-scale
// simulation.
const milesPerDegree = 69.0
