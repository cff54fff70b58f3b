package dispatch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coredispatch "github.com/letstalk-code/routecare/core/dispatch"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

func newFixture(t *testing.T) (*store.MemoryStore, http.Handler) {
	t.Helper()
	st := store.NewMemoryStore()
	engine := coredispatch.NewEngine(st, coredispatch.NewSmartScorer(coredispatch.Config{}))
	return st, NewHandler(engine, nil)
}

func seedTrip(t *testing.T, st *store.MemoryStore, priority model.TripPriority) model.Trip {
	t.Helper()
	now := time.Now().UTC()
	trip, err := st.CreateTrip(model.Trip{
		Type:            model.TripDischarge,
		Priority:        priority,
		Pickup:          model.TripStop{Address: "Mercy General", Lat: 38.57, Lng: -121.47},
		Dropoff:         model.TripStop{Address: "800 Oak St", Lat: 38.56, Lng: -121.49},
		ScheduledWindow: model.TimeWindow{Start: now, End: now.Add(time.Hour)},
	})
	require.NoError(t, err)
	return trip
}

func TestSuggestionsRequireTripID(t *testing.T) {
	_, h := newFixture(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/suggestions", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuggestionsUnknownTrip(t *testing.T) {
	_, h := newFixture(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/suggestions?trip_id=nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSuggestionsRankDrivers(t *testing.T) {
	st, h := newFixture(t)
	trip := seedTrip(t, st, model.PriorityStat)

	for _, d := range []model.Driver{
		{ID: "drv-near", Status: model.DriverAvailable, VehicleID: "veh-1"},
		{ID: "drv-far", Status: model.DriverAvailable, VehicleID: "veh-2"},
	} {
		_, err := st.CreateDriver(d)
		require.NoError(t, err)
	}
	for _, v := range []model.Vehicle{{ID: "veh-1"}, {ID: "veh-2"}} {
		_, err := st.CreateVehicle(v)
		require.NoError(t, err)
	}
	require.NoError(t, st.RecordPing(model.GPSPing{DriverID: "drv-near", Lat: 38.57, Lng: -121.47, Timestamp: time.Now()}))
	require.NoError(t, st.RecordPing(model.GPSPing{DriverID: "drv-far", Lat: 38.90, Lng: -121.00, Timestamp: time.Now()}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/suggestions?trip_id="+trip.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var result coredispatch.Suggestions
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Equal(t, trip.ID, result.TripID)
	require.Len(t, result.Suggestions, 2)
	require.Equal(t, "drv-near", result.Suggestions[0].DriverID)
}

func TestSuggestionsLimit(t *testing.T) {
	st, h := newFixture(t)
	trip := seedTrip(t, st, model.PriorityScheduled)
	for _, id := range []string{"d1", "d2", "d3"} {
		_, err := st.CreateDriver(model.Driver{ID: id, Status: model.DriverAvailable, VehicleID: "veh-" + id})
		require.NoError(t, err)
		_, err = st.CreateVehicle(model.Vehicle{ID: "veh-" + id})
		require.NoError(t, err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/suggestions?trip_id="+trip.ID+"&limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var result coredispatch.Suggestions
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Len(t, result.Suggestions, 2)
}

func TestQueueDefaultsToNeedsAction(t *testing.T) {
	st, h := newFixture(t)
	stat := seedTrip(t, st, model.PriorityStat)
	seedTrip(t, st, model.PriorityScheduled)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/queue", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var trips []model.Trip
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trips))
	require.NotEmpty(t, trips)
	require.Equal(t, stat.ID, trips[0].ID)
}

func TestQueueRejectsUnknownView(t *testing.T) {
	_, h := newFixture(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/queue?view=bogus", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
