// Package kpi computes the dashboard aggregates. Both on-time definitions
// coexist on purpose: operations reports use the 15-minute pickup rule while
// the realtime board uses dropoff-before-window-start. The raw timestamps
// live on the trip so either can be recomputed.
package kpi

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/letstalk-code/routecare/core/lifecycle"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// Kpis is the snapshot consumed by dashboards.
type Kpis struct {
	TripsToday           int     `json:"trips_today"`
	DischargePendingStat int     `json:"discharge_pending_stat"`
	OnTimeRateScheduled  float64 `json:"on_time_rate_scheduled"` // percentage
	OnTimeDropoffRate    float64 `json:"on_time_dropoff_rate"`   // percentage
	ActiveDrivers        int     `json:"active_drivers"`
	AvailableDrivers     int     `json:"available_drivers"`
}

// Compute aggregates the store as of now.
func Compute(st *store.MemoryStore, now time.Time) Kpis {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := day.AddDate(0, 0, 1)

	today := st.ListTrips(store.TripFilter{ScheduledFrom: day, ScheduledTo: tomorrow})
	var k Kpis
	k.TripsToday = len(today)

	var pickupOnTime, dropoffOnTime []float64
	for _, t := range st.ListTrips(store.TripFilter{}) {
		if t.Type == model.TripDischarge && t.Priority == model.PriorityStat &&
			(t.Status == model.StatusUnassigned || t.Status == model.StatusAssigned) {
			k.DischargePendingStat++
		}
	}
	for _, t := range today {
		if t.Status != model.StatusCompleted {
			continue
		}
		pickupOnTime = append(pickupOnTime, indicator(lifecycle.PickupOnTime(t)))
		dropoffOnTime = append(dropoffOnTime, indicator(lifecycle.DropoffOnTime(t)))
	}
	if len(pickupOnTime) > 0 {
		k.OnTimeRateScheduled = 100 * stat.Mean(pickupOnTime, nil)
	}
	if len(dropoffOnTime) > 0 {
		k.OnTimeDropoffRate = 100 * stat.Mean(dropoffOnTime, nil)
	}

	for _, d := range st.ListDrivers(store.DriverFilter{}) {
		if d.Status != model.DriverOffDuty {
			k.ActiveDrivers++
		}
		if d.Status == model.DriverAvailable {
			k.AvailableDrivers++
		}
	}
	return k
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
