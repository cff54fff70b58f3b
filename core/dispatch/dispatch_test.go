package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

var (
	sedan     = model.Vehicle{ID: "veh-sedan", Name: "Sedan 1", Type: model.VehicleSedan}
	wcVan     = model.Vehicle{ID: "veh-van", Name: "Van 2", Type: model.VehicleWheelchairVan, WheelchairAccessible: true}
	ambulette = model.Vehicle{ID: "veh-amb", Name: "Ambulette 1", Type: model.VehicleAmbulette}
)

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		name    string
		driver  model.Driver
		vehicle model.Vehicle
		trip    model.Trip
		wantErr bool
	}{
		{
			name:    "ambulatory passenger in a sedan",
			driver:  model.Driver{ID: "d"},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityAmbulatory}},
		},
		{
			name:    "wheelchair passenger in a sedan",
			driver:  model.Driver{ID: "d"},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityWheelchair}},
			wantErr: true,
		},
		{
			name:    "wheelchair passenger in an accessible van",
			driver:  model.Driver{ID: "d"},
			vehicle: wcVan,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityWheelchair}},
		},
		{
			name:    "securement cert compensates for the vehicle",
			driver:  model.Driver{ID: "d", Certifications: []string{"Wheelchair Securement"}},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityWheelchair}},
		},
		{
			name:    "stretcher needs an ambulette",
			driver:  model.Driver{ID: "d"},
			vehicle: wcVan,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityStretcher}},
			wantErr: true,
		},
		{
			name:    "stretcher in an ambulette",
			driver:  model.Driver{ID: "d"},
			vehicle: ambulette,
			trip:    model.Trip{Passenger: model.Passenger{MobilityLevel: model.MobilityStretcher}},
		},
		{
			name:    "oxygen tank without the cert",
			driver:  model.Driver{ID: "d"},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{SpecialNeeds: []string{"Oxygen Tank"}}},
			wantErr: true,
		},
		{
			name:    "oxygen tank with the cert",
			driver:  model.Driver{ID: "d", Certifications: []string{"Oxygen"}},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{SpecialNeeds: []string{"Oxygen Tank"}}},
		},
		{
			name:    "unmapped need requires nothing",
			driver:  model.Driver{ID: "d"},
			vehicle: sedan,
			trip:    model.Trip{Passenger: model.Passenger{SpecialNeeds: []string{"Service Animal"}}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEligibility(tc.driver, tc.vehicle, tc.trip)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func ping(id string, lat, lng float64) *model.GPSPing {
	return &model.GPSPing{DriverID: id, Lat: lat, Lng: lng, Timestamp: time.Now().UTC()}
}

func TestRankPrefersCloserDriver(t *testing.T) {
	scorer := NewSmartScorer(Config{})
	trip := model.Trip{
		ID:     "trip-1",
		Pickup: model.TripStop{Address: "12 Oak St", Lat: 42.3601, Lng: -71.0589},
	}
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-far", Status: model.DriverAvailable}, Vehicle: sedan, Location: ping("drv-far", 42.50, -71.30)},
		{Driver: model.Driver{ID: "drv-near", Status: model.DriverAvailable}, Vehicle: sedan, Location: ping("drv-near", 42.3620, -71.0600)},
	}

	out := scorer.Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2)
	require.Equal(t, "drv-near", out[0].DriverID)
	assert.Greater(t, out[0].Score, out[1].Score)
	assert.Less(t, out[0].Distance, out[1].Distance)
	assert.Contains(t, out[0].Reasons, "Closest to pickup location")
	assert.NotContains(t, out[1].Reasons, "Closest to pickup location")
	assert.True(t, out[0].EstimatedPickupTime.Before(out[1].EstimatedPickupTime))
}

func TestRankBusyDrivers(t *testing.T) {
	trip := model.Trip{ID: "trip-1", Pickup: model.TripStop{Lat: 42.36, Lng: -71.06}}
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-busy", Status: model.DriverOnTrip}, Vehicle: sedan, Location: ping("drv-busy", 42.36, -71.06)},
		{Driver: model.Driver{ID: "drv-free", Status: model.DriverAvailable}, Vehicle: sedan, Location: ping("drv-free", 42.36, -71.06)},
		{Driver: model.Driver{ID: "drv-off", Status: model.DriverOffDuty}, Vehicle: sedan},
		{Driver: model.Driver{ID: "drv-break", Status: model.DriverBreak}, Vehicle: sedan},
	}

	out := NewSmartScorer(Config{}).Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2, "off_duty and break are always excluded")
	require.Equal(t, "drv-free", out[0].DriverID)
	require.Equal(t, "drv-busy", out[1].DriverID)
	assert.True(t, out[1].AvailableAfterTrip)
	assert.Contains(t, out[1].Reasons, "Will be available after current trip")
	assert.True(t, out[1].EstimatedPickupTime.After(out[0].EstimatedPickupTime))

	strict := NewSmartScorer(Config{ExcludeBusyDrivers: true}).Rank(trip, cands, time.Now().UTC())
	require.Len(t, strict, 1)
	assert.Equal(t, "drv-free", strict[0].DriverID)
}

func TestRankHardConstraintsFilter(t *testing.T) {
	trip := model.Trip{
		ID:        "trip-1",
		Passenger: model.Passenger{MobilityLevel: model.MobilityWheelchair},
		Pickup:    model.TripStop{Lat: 42.36, Lng: -71.06},
	}
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-sedan", Status: model.DriverAvailable}, Vehicle: sedan, Location: ping("drv-sedan", 42.36, -71.06)},
		{Driver: model.Driver{ID: "drv-van", Status: model.DriverAvailable}, Vehicle: wcVan, Location: ping("drv-van", 42.40, -71.10)},
	}
	out := NewSmartScorer(Config{}).Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 1)
	assert.Equal(t, "drv-van", out[0].DriverID)
	assert.Contains(t, out[0].Reasons, "Wheelchair van available")
}

func TestRankZoneAndOnTimeFactors(t *testing.T) {
	trip := model.Trip{ID: "trip-1", PickupZone: "north", Pickup: model.TripStop{Lat: 42.36, Lng: -71.06}}
	loc := func(id string) *model.GPSPing { return ping(id, 42.36, -71.06) }
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-a", Status: model.DriverAvailable, Zone: "south", Stats: model.DriverStats{OnTimeRate: 50}}, Vehicle: sedan, Location: loc("drv-a")},
		{Driver: model.Driver{ID: "drv-b", Status: model.DriverAvailable, Zone: "north", Stats: model.DriverStats{OnTimeRate: 95}}, Vehicle: sedan, Location: loc("drv-b")},
	}
	out := NewSmartScorer(Config{}).Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2)
	require.Equal(t, "drv-b", out[0].DriverID)
	assert.Contains(t, out[0].Reasons, "High on-time rate (95%)")
	assert.Contains(t, out[0].Reasons, "Covers the north zone")
}

func TestRankTieBreaksOnDriverID(t *testing.T) {
	trip := model.Trip{ID: "trip-1", Pickup: model.TripStop{Lat: 42.36, Lng: -71.06}}
	loc := func(id string) *model.GPSPing { return ping(id, 42.36, -71.06) }
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-z", Status: model.DriverAvailable}, Vehicle: sedan, Location: loc("drv-z")},
		{Driver: model.Driver{ID: "drv-a", Status: model.DriverAvailable}, Vehicle: sedan, Location: loc("drv-a")},
	}
	out := NewSmartScorer(Config{}).Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2)
	assert.Equal(t, "drv-a", out[0].DriverID)
}

func TestOrderQueueViews(t *testing.T) {
	trips := []model.Trip{
		{ID: "t-sched", Type: model.TripAppointment, Priority: model.PriorityScheduled, Status: model.StatusAssigned},
		{ID: "t-unassigned", Type: model.TripAppointment, Priority: model.PriorityUrgent, Status: model.StatusUnassigned},
		{ID: "t-stat", Type: model.TripDischarge, Priority: model.PriorityStat, Status: model.StatusAssigned},
		{ID: "t-done", Type: model.TripDischarge, Priority: model.PriorityUrgent, Status: model.StatusCompleted},
	}

	needs := OrderQueue(trips, ViewNeedsAction)
	require.Len(t, needs, 2)
	assert.Equal(t, "t-stat", needs[0].ID, "STAT pins to the top")
	assert.Equal(t, "t-unassigned", needs[1].ID)

	discharge := OrderQueue(trips, ViewDischarge)
	require.Len(t, discharge, 2)
	assert.Equal(t, "t-stat", discharge[0].ID)
	assert.Equal(t, "t-done", discharge[1].ID)

	scheduled := OrderQueue(trips, ViewScheduled)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "t-sched", scheduled[0].ID)

	all := OrderQueue(trips, ViewAll)
	require.Len(t, all, 4)
	assert.Equal(t, "t-stat", all[0].ID)
	assert.Equal(t, "t-unassigned", all[1].ID)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewNeedsAction, v)
	v, err = ParseView("discharge")
	require.NoError(t, err)
	assert.Equal(t, ViewDischarge, v)
	_, err = ParseView("bogus")
	var ve model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestEngineSuggestDrivers(t *testing.T) {
	st := store.NewMemoryStore()
	_, err := st.CreateVehicle(sedan)
	require.NoError(t, err)
	for _, id := range []string{"drv-1", "drv-2", "drv-3"} {
		_, err := st.CreateDriver(model.Driver{ID: id, Name: id, Status: model.DriverAvailable, VehicleID: sedan.ID})
		require.NoError(t, err)
		require.NoError(t, st.RecordPing(model.GPSPing{DriverID: id, Lat: 42.36, Lng: -71.06}))
	}
	now := time.Now().UTC()
	trip, err := st.CreateTrip(model.Trip{
		Pickup:          model.TripStop{Address: "12 Oak St", Lat: 42.36, Lng: -71.06},
		Dropoff:         model.TripStop{Address: "DaVita Clinic"},
		ScheduledWindow: model.TimeWindow{Start: now, End: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	eng := NewEngine(st, NewSmartScorer(Config{}))

	sug, err := eng.SuggestDrivers(trip.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, sug.TripID)
	require.Len(t, sug.Suggestions, 2, "n caps the ranked list")
	assert.False(t, sug.GeneratedAt.IsZero())

	sug, err = eng.SuggestDrivers(trip.ID, 0)
	require.NoError(t, err)
	assert.Len(t, sug.Suggestions, 3, "default cap admits all three")

	_, err = eng.SuggestDrivers("ghost", 0)
	var nf store.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRankDriverWithoutLocation(t *testing.T) {
	scorer := NewSmartScorer(Config{})
	trip := model.Trip{
		ID:     "trip-1",
		Pickup: model.TripStop{Address: "12 Oak St", Lat: 42.3601, Lng: -71.0589},
	}
	cands := []Candidate{
		{Driver: model.Driver{ID: "drv-silent", Status: model.DriverAvailable}, Vehicle: sedan},
		{Driver: model.Driver{ID: "drv-near", Status: model.DriverAvailable}, Vehicle: sedan, Location: ping("drv-near", 42.3620, -71.0600)},
	}

	out := scorer.Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2)

	var silent Suggestion
	for _, sg := range out {
		if sg.DriverID == "drv-silent" {
			silent = sg
		}
	}
	require.Equal(t, "drv-silent", silent.DriverID)
	assert.Equal(t, -1.0, silent.Distance, "unknown location is reported as -1")
	assert.NotContains(t, silent.Reasons, "Closest to pickup location")

	// The whole result must survive JSON encoding for the API layer.
	_, err := json.Marshal(out)
	require.NoError(t, err)
}

func TestRankUnknownLocationSortsAfterKnown(t *testing.T) {
	scorer := NewSmartScorer(Config{})
	trip := model.Trip{ID: "trip-1", Pickup: model.TripStop{Lat: 42.3601, Lng: -71.0589}}

	// Identical drivers except one has never pinged. The located driver is
	// far enough out that the distance term rounds away, so the scores tie
	// and the known distance must win the tie-break.
	base := model.Driver{Status: model.DriverAvailable, Stats: model.DriverStats{OnTimeRate: 90}}
	silent := base
	silent.ID = "drv-a"
	located := base
	located.ID = "drv-b"

	cands := []Candidate{
		{Driver: silent, Vehicle: sedan},
		{Driver: located, Vehicle: sedan, Location: ping("drv-b", 44.00, -71.0589)},
	}

	out := scorer.Rank(trip, cands, time.Now().UTC())
	require.Len(t, out, 2)
	require.Equal(t, out[0].Score, out[1].Score)
	assert.Equal(t, "drv-b", out[0].DriverID, "known location outranks an unknown one")
	assert.Equal(t, -1.0, out[1].Distance)
}
