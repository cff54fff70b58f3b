package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/letstalk-code/routecare/app"
	"github.com/letstalk-code/routecare/config"
	"github.com/letstalk-code/routecare/core/audit"
	"github.com/letstalk-code/routecare/core/kpi"
	"github.com/letstalk-code/routecare/core/model"
)

const auditToken = "ops-secret"

func newService(t *testing.T) *app.Service {
	t.Helper()
	dir := t.TempDir()

	seed := map[string]any{
		"vehicles": []model.Vehicle{{ID: "veh-1", Name: "Van 2", Type: model.VehicleWheelchairVan, WheelchairAccessible: true}},
		"drivers": []model.Driver{{
			ID: "drv-1", Name: "Maya Torres", Status: model.DriverAvailable,
			VehicleID: "veh-1", Zone: "north",
		}},
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, data, 0o644))

	cfg := &config.Config{}
	cfg.HTTP.SetDefaults()
	cfg.HTTP.AuditToken = auditToken
	cfg.Audit.Backend = "sqlite"
	cfg.Audit.Path = filepath.Join(dir, "audit.db")
	cfg.Dispatch.SetDefaults()
	cfg.Broadcast.SetDefaults()
	cfg.Seed.Path = seedPath

	svc, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, svc.Close()) })
	return svc
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("X-Operator", "op-7")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestTripFlowEndToEnd(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	// Driver reports a position so dispatch can rank by distance.
	ping := model.GPSPing{Lat: 42.35, Lng: -71.06, Speed: 20}
	resp := doJSON(t, srv, http.MethodPost, "/api/drivers/drv-1/location", ping, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	now := time.Now().UTC()
	newTrip := model.Trip{
		Type:     model.TripAppointment,
		Priority: model.PriorityUrgent,
		Passenger: model.Passenger{
			Name:          "Walter Nash",
			MobilityLevel: model.MobilityWheelchair,
		},
		Pickup:          model.TripStop{Address: "3 Elm Rd", Lat: 42.36, Lng: -71.05},
		Dropoff:         model.TripStop{Address: "Mercy Hospital", Lat: 42.30, Lng: -71.10},
		ScheduledWindow: model.TimeWindow{Start: now.Add(20 * time.Minute), End: now.Add(50 * time.Minute)},
		EstimatedMiles:  6.5,
	}
	var created model.Trip
	resp = doJSON(t, srv, http.MethodPost, "/api/trips", newTrip, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID)
	require.Equal(t, model.StatusUnassigned, created.Status)

	// The seeded driver is the only candidate.
	var suggestions struct {
		TripID      string `json:"trip_id"`
		Suggestions []struct {
			DriverID string  `json:"driver_id"`
			Score    float64 `json:"score"`
		} `json:"suggestions"`
	}
	resp = doJSON(t, srv, http.MethodGet, "/api/dispatch/suggestions?trip_id="+created.ID, nil, &suggestions)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, created.ID, suggestions.TripID)
	require.NotEmpty(t, suggestions.Suggestions)
	require.Equal(t, "drv-1", suggestions.Suggestions[0].DriverID)

	var assigned model.Trip
	resp = doJSON(t, srv, http.MethodPost, "/api/trips/"+created.ID+"/assign",
		map[string]string{"driver_id": "drv-1"}, &assigned)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, model.StatusAssigned, assigned.Status)
	require.Equal(t, "veh-1", assigned.VehicleID)

	var driver model.Driver
	resp = doJSON(t, srv, http.MethodGet, "/api/drivers/drv-1", nil, &driver)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, model.DriverOnTrip, driver.Status)

	steps := []model.EventType{
		model.EventEnRoutePickup,
		model.EventArrivedPickup,
		model.EventPassengerOnboard,
		model.EventEnRouteDropoff,
		model.EventArrivedDropoff,
		model.EventTripCompleted,
	}
	var current model.Trip
	for _, ev := range steps {
		resp = doJSON(t, srv, http.MethodPost, "/api/trips/"+created.ID+"/events",
			map[string]string{"type": ev.String()}, &current)
		require.Equal(t, http.StatusOK, resp.StatusCode, "event %s", ev)
	}
	require.Equal(t, model.StatusCompleted, current.Status)
	require.NotNil(t, current.Pickup.ActualTime)
	require.NotNil(t, current.Dropoff.ActualTime)

	// Completion releases the driver and credits the day's counters.
	resp = doJSON(t, srv, http.MethodGet, "/api/drivers/drv-1", nil, &driver)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, model.DriverAvailable, driver.Status)
	require.Equal(t, 1, driver.Stats.TripsToday)
	require.InDelta(t, 6.5, driver.Stats.TotalMiles, 1e-9)

	var events []model.TripEvent
	resp = doJSON(t, srv, http.MethodGet, "/api/trips/"+created.ID+"/events", nil, &events)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, events, 8)
	require.Equal(t, model.EventTripCreated, events[0].Type)
	require.Equal(t, model.EventTripCompleted, events[len(events)-1].Type)
	require.Equal(t, "op-7", events[0].CreatedBy)

	var k kpi.Kpis
	resp = doJSON(t, srv, http.MethodGet, "/api/dashboard/kpis", nil, &k)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, k.AvailableDrivers)

	// The audit endpoint requires the bearer token.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/dashboard/audit?trip_id="+created.ID, nil)
	require.NoError(t, err)
	unauth, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.NoError(t, unauth.Body.Close())
	require.Equal(t, http.StatusUnauthorized, unauth.StatusCode)

	req.Header.Set("Authorization", "Bearer "+auditToken)
	authed, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, authed.Body.Close()) }()
	require.Equal(t, http.StatusOK, authed.StatusCode)
	var records []audit.Record
	require.NoError(t, json.NewDecoder(authed.Body).Decode(&records))
	require.Len(t, records, 8)
}

func TestStreamDeliversLateRisk(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	now := time.Now().UTC()
	overdue := model.Trip{
		Type:            model.TripDischarge,
		Priority:        model.PriorityStat,
		Passenger:       model.Passenger{Name: "June Park"},
		Pickup:          model.TripStop{Address: "Mercy Hospital ER"},
		Dropoff:         model.TripStop{Address: "40 Birch Ln"},
		ScheduledWindow: model.TimeWindow{Start: now.Add(5 * time.Minute), End: now.Add(35 * time.Minute)},
	}
	var created model.Trip
	resp := doJSON(t, srv, http.MethodPost, "/api/trips", overdue, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stream", nil)
	require.NoError(t, err)
	stream, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, stream.Body.Close()) }()
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	line := readSSELine(t, stream)
	var snap struct {
		Trips []model.Trip `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(line, &snap))
	require.Len(t, snap.Trips, 1)
	require.Equal(t, model.RiskHigh, snap.Trips[0].LateRisk)
}

func readSSELine(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	buf := make([]byte, 64*1024)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	payload := buf[:n]
	const prefix = "data: "
	require.True(t, bytes.HasPrefix(payload, []byte(prefix)), "unexpected frame %q", payload)
	end := bytes.IndexByte(payload, '\n')
	require.Greater(t, end, 0)
	return payload[len(prefix):end]
}

func TestRejectedTransitionLeavesNoTrace(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	now := time.Now().UTC()
	trip := model.Trip{
		Passenger:       model.Passenger{Name: "Ruth Ellis"},
		Pickup:          model.TripStop{Address: "12 Oak St"},
		Dropoff:         model.TripStop{Address: "DaVita Clinic"},
		ScheduledWindow: model.TimeWindow{Start: now.Add(time.Hour), End: now.Add(90 * time.Minute)},
	}
	var created model.Trip
	resp := doJSON(t, srv, http.MethodPost, "/api/trips", trip, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Completing an unassigned trip must be rejected with 409.
	resp = doJSON(t, srv, http.MethodPost, "/api/trips/"+created.ID+"/events",
		map[string]string{"type": "trip_completed"}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var events []model.TripEvent
	resp = doJSON(t, srv, http.MethodGet, "/api/trips/"+created.ID+"/events", nil, &events)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, events, 1)

	// Unknown trips surface as 404 on every route.
	for _, path := range []string{"/api/trips/nope", "/api/trips/nope/events"} {
		resp = doJSON(t, srv, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, fmt.Sprintf("path %s", path))
	}
}
