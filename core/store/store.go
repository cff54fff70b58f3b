// Package store provides the in-memory entity store backing the dispatch
// core. All list results are deterministically ordered: trips by creation
// sequence, drivers and vehicles by ID, events by append order.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/letstalk-code/routecare/core/model"
)

// TripFilter selects trips by explicit fields. Zero values match everything.
type TripFilter struct {
	Status        *model.TripStatus
	Priority      *model.TripPriority
	Type          *model.TripType
	DriverID      string
	ScheduledFrom time.Time
	ScheduledTo   time.Time
}

// DriverFilter selects drivers by explicit fields.
type DriverFilter struct {
	Status    *model.DriverStatus
	Zone      string
	VehicleID string
}

// MemoryStore holds all entities behind a single RWMutex. Trip writes bump
// a per-trip version so the lifecycle machine can detect concurrent
// transitions.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[string]model.Trip
	tripSeq  map[string]uint64 // creation order, for stable queue sorting
	nextSeq  uint64
	drivers  map[string]model.Driver
	vehicles map[string]model.Vehicle
	events   []model.TripEvent
	pings    map[string][]model.GPSPing

	listenerMu sync.RWMutex
	listeners  []func()
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    map[string]model.Trip{},
		tripSeq:  map[string]uint64{},
		drivers:  map[string]model.Driver{},
		vehicles: map[string]model.Vehicle{},
		pings:    map[string][]model.GPSPing{},
	}
}

// OnChange registers a callback invoked after every mutating operation.
// Callbacks run with no store lock held, so they may read back into the
// store.
func (s *MemoryStore) OnChange(fn func()) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

// notify must be called after s.mu is released.
func (s *MemoryStore) notify() {
	s.listenerMu.RLock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.listenerMu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// CreateTrip inserts the trip, assigning an ID when missing.
func (s *MemoryStore) CreateTrip(t model.Trip) (model.Trip, error) {
	if err := t.Validate(); err != nil {
		return model.Trip{}, err
	}
	s.mu.Lock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := s.trips[t.ID]; ok {
		s.mu.Unlock()
		return model.Trip{}, ConflictError{Entity: "trip", ID: t.ID}
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Version = 1
	s.nextSeq++
	s.tripSeq[t.ID] = s.nextSeq
	s.trips[t.ID] = t
	s.mu.Unlock()
	s.notify()
	return t, nil
}

// GetTrip returns the trip or NotFoundError.
func (s *MemoryStore) GetTrip(id string) (model.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return model.Trip{}, NotFoundError{Entity: "trip", ID: id}
	}
	return t, nil
}

// UpdateTrip writes the trip unconditionally, bumping its version.
func (s *MemoryStore) UpdateTrip(t model.Trip) (model.Trip, error) {
	s.mu.Lock()
	cur, ok := s.trips[t.ID]
	if !ok {
		s.mu.Unlock()
		return model.Trip{}, NotFoundError{Entity: "trip", ID: t.ID}
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Version = cur.Version + 1
	s.trips[t.ID] = t
	s.mu.Unlock()
	s.notify()
	return t, nil
}

// UpdateTripVersioned writes the trip only if the caller read the current
// version; otherwise it fails with ConflictError and leaves the trip
// untouched.
func (s *MemoryStore) UpdateTripVersioned(t model.Trip, readVersion uint64) (model.Trip, error) {
	s.mu.Lock()
	cur, ok := s.trips[t.ID]
	if !ok {
		s.mu.Unlock()
		return model.Trip{}, NotFoundError{Entity: "trip", ID: t.ID}
	}
	if cur.Version != readVersion {
		s.mu.Unlock()
		return model.Trip{}, ConflictError{Entity: "trip", ID: t.ID}
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Version = cur.Version + 1
	s.trips[t.ID] = t
	s.mu.Unlock()
	s.notify()
	return t, nil
}

// ListTrips returns trips matching the filter in creation order.
func (s *MemoryStore) ListTrips(f TripFilter) []model.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		if f.DriverID != "" && t.DriverID != f.DriverID {
			continue
		}
		if !f.ScheduledFrom.IsZero() && t.ScheduledWindow.Start.Before(f.ScheduledFrom) {
			continue
		}
		if !f.ScheduledTo.IsZero() && !t.ScheduledWindow.Start.Before(f.ScheduledTo) {
			continue
		}
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return s.tripSeq[res[i].ID] < s.tripSeq[res[j].ID] })
	return res
}

// CreateDriver inserts the driver, assigning an ID when missing.
func (s *MemoryStore) CreateDriver(d model.Driver) (model.Driver, error) {
	s.mu.Lock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := s.drivers[d.ID]; ok {
		s.mu.Unlock()
		return model.Driver{}, ConflictError{Entity: "driver", ID: d.ID}
	}
	s.drivers[d.ID] = d
	s.mu.Unlock()
	s.notify()
	return d, nil
}

// GetDriver returns the driver or NotFoundError.
func (s *MemoryStore) GetDriver(id string) (model.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return model.Driver{}, NotFoundError{Entity: "driver", ID: id}
	}
	return d, nil
}

// UpdateDriver overwrites the driver record.
func (s *MemoryStore) UpdateDriver(d model.Driver) (model.Driver, error) {
	s.mu.Lock()
	if _, ok := s.drivers[d.ID]; !ok {
		s.mu.Unlock()
		return model.Driver{}, NotFoundError{Entity: "driver", ID: d.ID}
	}
	s.drivers[d.ID] = d
	s.mu.Unlock()
	s.notify()
	return d, nil
}

// ListDrivers returns drivers matching the filter sorted by ID.
func (s *MemoryStore) ListDrivers(f DriverFilter) []model.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.Zone != "" && d.Zone != f.Zone {
			continue
		}
		if f.VehicleID != "" && d.VehicleID != f.VehicleID {
			continue
		}
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// CreateVehicle inserts the vehicle, assigning an ID when missing.
func (s *MemoryStore) CreateVehicle(v model.Vehicle) (model.Vehicle, error) {
	s.mu.Lock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, ok := s.vehicles[v.ID]; ok {
		s.mu.Unlock()
		return model.Vehicle{}, ConflictError{Entity: "vehicle", ID: v.ID}
	}
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	s.notify()
	return v, nil
}

// GetVehicle returns the vehicle or NotFoundError.
func (s *MemoryStore) GetVehicle(id string) (model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return model.Vehicle{}, NotFoundError{Entity: "vehicle", ID: id}
	}
	return v, nil
}

// UpdateVehicle overwrites the vehicle record. Mileage never decreases.
func (s *MemoryStore) UpdateVehicle(v model.Vehicle) (model.Vehicle, error) {
	s.mu.Lock()
	cur, ok := s.vehicles[v.ID]
	if !ok {
		s.mu.Unlock()
		return model.Vehicle{}, NotFoundError{Entity: "vehicle", ID: v.ID}
	}
	if v.Mileage < cur.Mileage {
		v.Mileage = cur.Mileage
	}
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	s.notify()
	return v, nil
}

// ListVehicles returns all vehicles sorted by ID.
func (s *MemoryStore) ListVehicles() []model.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// AppendEvent records a trip event. Events are never mutated or deleted.
func (s *MemoryStore) AppendEvent(ev model.TripEvent) model.TripEvent {
	s.mu.Lock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.notify()
	return ev
}

// ListEvents returns the events for a trip in append order.
func (s *MemoryStore) ListEvents(tripID string) []model.TripEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.TripEvent
	for _, ev := range s.events {
		if ev.TripID == tripID {
			res = append(res, ev)
		}
	}
	return res
}

// RecordPing appends a GPS ping after validation.
func (s *MemoryStore) RecordPing(p model.GPSPing) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.drivers[p.DriverID]; !ok {
		s.mu.Unlock()
		return NotFoundError{Entity: "driver", ID: p.DriverID}
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	s.pings[p.DriverID] = append(s.pings[p.DriverID], p)
	s.mu.Unlock()
	s.notify()
	return nil
}

// LatestPing returns the most recent ping for the driver, if any.
func (s *MemoryStore) LatestPing(driverID string) (model.GPSPing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps := s.pings[driverID]
	if len(ps) == 0 {
		return model.GPSPing{}, false
	}
	latest := ps[0]
	for _, p := range ps[1:] {
		if p.Timestamp.After(latest.Timestamp) {
			latest = p
		}
	}
	return latest, true
}
