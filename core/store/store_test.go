package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

func validTrip(priority model.TripPriority) model.Trip {
	now := time.Now().UTC()
	return model.Trip{
		Priority:        priority,
		Passenger:       model.Passenger{Name: "Ruth Ellis"},
		Pickup:          model.TripStop{Address: "12 Oak St"},
		Dropoff:         model.TripStop{Address: "DaVita Clinic"},
		ScheduledWindow: model.TimeWindow{Start: now, End: now.Add(30 * time.Minute)},
	}
}

func TestCreateTripAssignsIDAndVersion(t *testing.T) {
	st := NewMemoryStore()
	created, err := st.CreateTrip(validTrip(model.PriorityScheduled))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Version != 1 {
		t.Fatalf("unexpected trip %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set")
	}
	if _, err := st.CreateTrip(model.Trip{ID: created.ID, Pickup: created.Pickup, Dropoff: created.Dropoff, ScheduledWindow: created.ScheduledWindow}); err == nil {
		t.Fatalf("expected conflict on duplicate ID")
	}
}

func TestCreateTripRejectsInvalid(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.CreateTrip(model.Trip{}); err == nil {
		t.Fatalf("expected validation error for missing stops")
	}
	var verr model.ValidationError
	_, err := st.CreateTrip(model.Trip{})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestUpdateTripVersioned(t *testing.T) {
	st := NewMemoryStore()
	created, err := st.CreateTrip(validTrip(model.PriorityScheduled))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Notes = "first writer"
	updated, err := st.UpdateTripVersioned(created, created.Version)
	if err != nil {
		t.Fatalf("versioned update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}

	// A second writer holding the stale version must lose.
	created.Notes = "stale writer"
	_, err = st.UpdateTripVersioned(created, created.Version)
	var cerr ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	got, err := st.GetTrip(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Notes != "first writer" {
		t.Fatalf("stale write leaked: %q", got.Notes)
	}
}

func TestListTripsFilters(t *testing.T) {
	st := NewMemoryStore()
	stat := validTrip(model.PriorityStat)
	stat.DriverID = "drv-1"
	stat.Status = model.StatusAssigned
	if _, err := st.CreateTrip(stat); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.CreateTrip(validTrip(model.PriorityScheduled)); err != nil {
		t.Fatalf("create: %v", err)
	}

	p := model.PriorityStat
	if got := st.ListTrips(TripFilter{Priority: &p}); len(got) != 1 {
		t.Fatalf("priority filter returned %d trips", len(got))
	}
	if got := st.ListTrips(TripFilter{DriverID: "drv-1"}); len(got) != 1 {
		t.Fatalf("driver filter returned %d trips", len(got))
	}
	if got := st.ListTrips(TripFilter{}); len(got) != 2 {
		t.Fatalf("unfiltered list returned %d trips", len(got))
	}
}

func TestListTripsCreationOrder(t *testing.T) {
	st := NewMemoryStore()
	var ids []string
	for i := 0; i < 5; i++ {
		tr, err := st.CreateTrip(validTrip(model.PriorityScheduled))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, tr.ID)
	}
	got := st.ListTrips(TripFilter{})
	for i, tr := range got {
		if tr.ID != ids[i] {
			t.Fatalf("position %d: expected %s got %s", i, ids[i], tr.ID)
		}
	}
}

func TestDriversAndVehicles(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.CreateVehicle(model.Vehicle{ID: "veh-1", Name: "Van 2"}); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if _, err := st.CreateDriver(model.Driver{ID: "drv-b", Name: "Sam Reed", Zone: "south"}); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	if _, err := st.CreateDriver(model.Driver{ID: "drv-a", Name: "Maya Torres", Zone: "north", VehicleID: "veh-1"}); err != nil {
		t.Fatalf("create driver: %v", err)
	}

	ds := st.ListDrivers(DriverFilter{})
	if len(ds) != 2 || ds[0].ID != "drv-a" || ds[1].ID != "drv-b" {
		t.Fatalf("expected ID order, got %+v", ds)
	}
	if got := st.ListDrivers(DriverFilter{Zone: "north"}); len(got) != 1 || got[0].ID != "drv-a" {
		t.Fatalf("zone filter returned %+v", got)
	}
	if got := st.ListDrivers(DriverFilter{VehicleID: "veh-1"}); len(got) != 1 {
		t.Fatalf("vehicle filter returned %+v", got)
	}

	var nf NotFoundError
	if _, err := st.GetDriver("nope"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestEventsAppendOnly(t *testing.T) {
	st := NewMemoryStore()
	first := st.AppendEvent(model.TripEvent{TripID: "trip-1", Type: model.EventTripCreated})
	if first.ID == "" || first.Timestamp.IsZero() {
		t.Fatalf("event defaults not applied: %+v", first)
	}
	st.AppendEvent(model.TripEvent{TripID: "trip-2", Type: model.EventTripCreated})
	st.AppendEvent(model.TripEvent{TripID: "trip-1", Type: model.EventTripAssigned})

	evs := st.ListEvents("trip-1")
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != model.EventTripCreated || evs[1].Type != model.EventTripAssigned {
		t.Fatalf("append order lost: %+v", evs)
	}
}

func TestRecordPingAndLatest(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.CreateDriver(model.Driver{ID: "drv-1", Name: "Maya Torres"}); err != nil {
		t.Fatalf("create driver: %v", err)
	}

	if err := st.RecordPing(model.GPSPing{DriverID: "ghost", Lat: 42, Lng: -71}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if err := st.RecordPing(model.GPSPing{DriverID: "drv-1", Lat: 120, Lng: -71}); err == nil {
		t.Fatalf("expected error for out-of-range latitude")
	}

	old := time.Now().Add(-time.Minute)
	if err := st.RecordPing(model.GPSPing{DriverID: "drv-1", Lat: 42.1, Lng: -71.1, Timestamp: old}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.RecordPing(model.GPSPing{DriverID: "drv-1", Lat: 42.2, Lng: -71.2}); err != nil {
		t.Fatalf("record: %v", err)
	}

	latest, ok := st.LatestPing("drv-1")
	if !ok || latest.Lat != 42.2 {
		t.Fatalf("expected newest ping, got %+v ok=%v", latest, ok)
	}
	if _, ok := st.LatestPing("drv-none"); ok {
		t.Fatalf("expected no ping for unknown driver")
	}
}

func TestOnChangeNotifies(t *testing.T) {
	st := NewMemoryStore()
	var mu sync.Mutex
	calls := 0
	st.OnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if _, err := st.CreateTrip(validTrip(model.PriorityScheduled)); err != nil {
		t.Fatalf("create: %v", err)
	}
	st.AppendEvent(model.TripEvent{TripID: "x", Type: model.EventTripCreated})
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
}

func TestOnChangeCallbackReadsStore(t *testing.T) {
	st := NewMemoryStore()
	seen := make(chan int, 4)
	st.OnChange(func() {
		seen <- len(st.ListTrips(TripFilter{}))
	})
	created, err := st.CreateTrip(validTrip(model.PriorityScheduled))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.UpdateTrip(created); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(seen)
	var counts []int
	for n := range seen {
		counts = append(counts, n)
	}
	if len(counts) != 2 || counts[0] != 1 || counts[1] != 1 {
		t.Fatalf("unexpected listener reads %v", counts)
	}
}

func TestConcurrentTripWrites(t *testing.T) {
	st := NewMemoryStore()
	created, err := st.CreateTrip(validTrip(model.PriorityScheduled))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := st.GetTrip(created.ID)
			if err != nil {
				return
			}
			if _, err := st.UpdateTripVersioned(tr, tr.Version); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	got, err := st.GetTrip(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if int(got.Version)-1 != len(wins) {
		t.Fatalf("version %d does not match %d successful writes", got.Version, len(wins))
	}
}
