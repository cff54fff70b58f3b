// Package dispatch ranks eligible drivers for unassigned trips and orders
// the operator-facing dispatch queue. Scoring is a pure computation over a
// snapshot of drivers and never mutates anything.
package dispatch

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// Candidate pairs a driver with their vehicle and last known location.
// Location may be nil when the driver has no GPS ping yet.
type Candidate struct {
	Driver   model.Driver
	Vehicle  model.Vehicle
	Location *model.GPSPing
}

// Suggestion is one ranked driver with an explainable score.
// Distance is -1 when the driver has no known location yet.
type Suggestion struct {
	DriverID             string    `json:"driver_id"`
	Score                float64   `json:"score"` // 0-100
	Distance             float64   `json:"distance"`
	EstimatedPickupTime  time.Time `json:"estimated_pickup_time"`
	EstimatedArrivalTime time.Time `json:"estimated_arrival_time"`
	AvailableAfterTrip   bool      `json:"available_after_trip"`
	Reasons              []string  `json:"reasons"`
}

// Suggestions is the ranked result for one trip.
type Suggestions struct {
	TripID      string       `json:"trip_id"`
	Suggestions []Suggestion `json:"suggestions"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// SmartScorer computes weighted driver scores. Weights can be tuned via
// Config; NewSmartScorer applies the defaults.
type SmartScorer struct {
	cfg Config
}

// NewSmartScorer returns a scorer with the given weights, defaulted when zero.
func NewSmartScorer(cfg Config) SmartScorer {
	cfg.SetDefaults()
	return SmartScorer{cfg: cfg}
}

// TopN returns the configured default suggestion cap.
func (s SmartScorer) TopN() int { return s.cfg.TopN }

// averageSpeedMph converts pickup distance into a pickup ETA.
const averageSpeedMph = 25.0

// busyDriverDelay is added to the pickup ETA of soft-included drivers who
// must finish their current trip first.
const busyDriverDelay = 20 * time.Minute

// Rank filters candidates through the hard constraints and returns the full
// eligible set sorted by score descending, distance ascending, driver ID
// ascending. Callers cap the result as needed.
func (s SmartScorer) Rank(trip model.Trip, cands []Candidate, now time.Time) []Suggestion {
	suggestionsComputed.Inc()
	var res []Suggestion
	bestDist := -1.0
	for _, c := range cands {
		sg, ok := s.score(trip, c, now)
		if !ok {
			continue
		}
		if sg.Distance >= 0 && (bestDist < 0 || sg.Distance < bestDist) {
			bestDist = sg.Distance
		}
		res = append(res, sg)
	}
	// The proximity reason goes only to the nearest eligible driver.
	if bestDist >= 0 {
		for i := range res {
			if res[i].Distance == bestDist {
				res[i].Reasons = append([]string{"Closest to pickup location"}, res[i].Reasons...)
				break
			}
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Score != res[j].Score {
			return res[i].Score > res[j].Score
		}
		if res[i].Distance != res[j].Distance {
			// Unknown locations sort after any known distance.
			if res[i].Distance < 0 {
				return false
			}
			if res[j].Distance < 0 {
				return true
			}
			return res[i].Distance < res[j].Distance
		}
		return res[i].DriverID < res[j].DriverID
	})
	return res
}

// score applies the hard constraints and computes the weighted score for one
// candidate. ok is false when the candidate is excluded.
func (s SmartScorer) score(trip model.Trip, c Candidate, now time.Time) (Suggestion, bool) {
	d := c.Driver
	switch d.Status {
	case model.DriverAvailable:
	case model.DriverOnTrip:
		if s.cfg.ExcludeBusyDrivers {
			return Suggestion{}, false
		}
	default:
		// off_duty and break are hard exclusions, never down-ranked.
		return Suggestion{}, false
	}
	if CheckEligibility(d, c.Vehicle, trip) != nil {
		return Suggestion{}, false
	}

	busy := d.Status == model.DriverOnTrip
	dist := math.Inf(1)
	if c.Location != nil {
		dist = model.DistanceMiles(c.Location.Lat, c.Location.Lng, trip.Pickup.Lat, trip.Pickup.Lng)
	}

	distScore := 0.0
	if !math.IsInf(dist, 1) {
		distScore = math.Exp(-dist / 10.0)
	}
	onTimeScore := d.Stats.OnTimeRate / 100
	availScore := 1.0
	if busy {
		availScore = 0.3
	}
	certScore := certificationMatch(d, trip)
	zoneScore := 0.0
	if trip.PickupZone != "" && d.Zone == trip.PickupZone {
		zoneScore = 1.0
	}

	cfg := s.cfg
	weightSum := cfg.DistanceWeight + cfg.OnTimeWeight + cfg.AvailabilityWeight +
		cfg.CertificationWeight + cfg.ZoneWeight
	raw := distScore*cfg.DistanceWeight +
		onTimeScore*cfg.OnTimeWeight +
		availScore*cfg.AvailabilityWeight +
		certScore*cfg.CertificationWeight +
		zoneScore*cfg.ZoneWeight
	score := math.Round(100 * raw / weightSum)

	sg := Suggestion{
		DriverID:           d.ID,
		Score:              score,
		Distance:           -1,
		AvailableAfterTrip: busy,
		Reasons:            s.reasons(trip, c, busy, dist),
	}
	eta := now
	if !math.IsInf(dist, 1) {
		sg.Distance = dist
		eta = eta.Add(time.Duration(dist / averageSpeedMph * float64(time.Hour)))
	}
	if busy {
		eta = eta.Add(busyDriverDelay)
	}
	sg.EstimatedPickupTime = eta
	sg.EstimatedArrivalTime = eta.Add(time.Duration(trip.EstimatedDuration) * time.Minute)
	return sg, true
}

// certificationMatch returns the share of the trip's capability requirements
// the driver covers beyond the hard minimum.
func certificationMatch(d model.Driver, trip model.Trip) float64 {
	var want, have int
	if cert := mobilityCert(trip.Passenger.MobilityLevel); cert != "" {
		want++
		if d.HasCertification(cert) {
			have++
		}
	}
	for _, need := range trip.Passenger.SpecialNeeds {
		if cert, ok := equipmentCerts[need]; ok {
			want++
			if d.HasCertification(cert) {
				have++
			}
		}
	}
	if want == 0 {
		return 0
	}
	return float64(have) / float64(want)
}

// reasons surfaces the factors that cross their materiality thresholds as
// operator-readable strings.
func (s SmartScorer) reasons(trip model.Trip, c Candidate, busy bool, dist float64) []string {
	var rs []string
	if busy {
		rs = append(rs, "Will be available after current trip")
	} else {
		rs = append(rs, "Currently available")
	}
	if !math.IsInf(dist, 1) && dist <= 5 {
		rs = append(rs, fmt.Sprintf("Close to pickup (%.1f mi)", dist))
	}
	if c.Driver.Stats.OnTimeRate >= 90 {
		rs = append(rs, fmt.Sprintf("High on-time rate (%.0f%%)", c.Driver.Stats.OnTimeRate))
	}
	switch trip.Passenger.MobilityLevel {
	case model.MobilityWheelchair:
		if c.Vehicle.WheelchairAccessible {
			rs = append(rs, "Wheelchair van available")
		}
	case model.MobilityStretcher:
		if c.Driver.HasCertification("Stretcher Certified") {
			rs = append(rs, "Stretcher certified")
		}
	}
	for _, need := range trip.Passenger.SpecialNeeds {
		if cert, ok := equipmentCerts[need]; ok && c.Driver.HasCertification(cert) {
			rs = append(rs, cert+" certified")
		}
	}
	if trip.PickupZone != "" && c.Driver.Zone == trip.PickupZone {
		rs = append(rs, "Covers the "+trip.PickupZone+" zone")
	}
	return rs
}
