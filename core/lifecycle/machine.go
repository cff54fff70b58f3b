// Package lifecycle implements the trip state machine: it validates events
// against the transition table and applies the trip mutation, driver status
// flip and audit log append as one atomic unit per trip.
package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/letstalk-code/routecare/core/audit"
	"github.com/letstalk-code/routecare/core/dispatch"
	"github.com/letstalk-code/routecare/core/events"
	"github.com/letstalk-code/routecare/core/logger"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/internal/eventbus"
)

// EventInput carries the operator- or driver-supplied parts of a transition.
type EventInput struct {
	Type      model.EventType
	DriverID  string // trip_assigned only
	Location  *model.GeoPoint
	Notes     string
	CreatedBy string
}

// Machine applies trip lifecycle transitions. Concurrent transitions on the
// same trip serialize on a per-trip lock, transitions touching the same
// driver serialize on a per-driver lock, and the store's version check
// catches writers that bypass the machine.
type Machine struct {
	store *store.MemoryStore
	log   logger.Logger

	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	driverLocks map[string]*sync.Mutex

	auditStore audit.Store
	bus        eventbus.EventBus
}

// NewMachine creates a machine over the given store.
func NewMachine(st *store.MemoryStore, log logger.Logger) *Machine {
	return &Machine{
		store:       st,
		log:         log,
		locks:       map[string]*sync.Mutex{},
		driverLocks: map[string]*sync.Mutex{},
	}
}

// SetAuditStore configures the store used to persist the transition trail.
func (m *Machine) SetAuditStore(s audit.Store) {
	m.mu.Lock()
	m.auditStore = s
	m.mu.Unlock()
}

// SetBus configures the event bus transitions are published on.
func (m *Machine) SetBus(bus eventbus.EventBus) {
	m.mu.Lock()
	m.bus = bus
	m.mu.Unlock()
}

func (m *Machine) tripLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Machine) driverLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.driverLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.driverLocks[id] = l
	}
	return l
}

// lockDrivers acquires the per-driver locks in ID order and returns the
// matching unlock. The trip lock is always taken first, so ordering the
// driver locks is enough to rule out deadlock.
func (m *Machine) lockDrivers(ids ...string) func() {
	uniq := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)
	locked := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		l := m.driverLock(id)
		l.Lock()
		locked = append(locked, l)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

// CreateTrip validates and stores a new trip and logs the trip_created event.
func (m *Machine) CreateTrip(t model.Trip, createdBy string) (model.Trip, error) {
	t.Status = model.StatusUnassigned
	t.DriverID = ""
	t.VehicleID = ""
	created, err := m.store.CreateTrip(t)
	if err != nil {
		return model.Trip{}, err
	}
	m.store.AppendEvent(model.TripEvent{
		TripID:    created.ID,
		Type:      model.EventTripCreated,
		CreatedBy: orSystem(createdBy),
	})
	m.log.Infof("trip %s created (%s, %s)", created.ID, created.Type, created.Priority)
	return created, nil
}

// AssignDriver applies a trip_assigned event for the given driver.
func (m *Machine) AssignDriver(tripID, driverID, createdBy string) (model.Trip, error) {
	return m.Apply(tripID, EventInput{
		Type:      model.EventTripAssigned,
		DriverID:  driverID,
		CreatedBy: createdBy,
	})
}

// UnassignDriver applies a driver_unassigned event.
func (m *Machine) UnassignDriver(tripID, createdBy string) (model.Trip, error) {
	return m.Apply(tripID, EventInput{
		Type:      model.EventDriverUnassigned,
		CreatedBy: createdBy,
	})
}

// RecordPing validates and stores a GPS ping and publishes it on the bus.
func (m *Machine) RecordPing(p model.GPSPing) error {
	if err := m.store.RecordPing(p); err != nil {
		return err
	}
	if m.bus != nil {
		m.bus.Publish(events.TelemetryEvent{Ping: p})
	}
	return nil
}

// Apply validates the event against the trip's current state and, if valid,
// applies the status change, side effects and event append together. A
// rejected event mutates nothing.
func (m *Machine) Apply(tripID string, in EventInput) (model.Trip, error) {
	if in.Type == model.EventTripCreated {
		trip, err := m.store.GetTrip(tripID)
		if err != nil {
			return model.Trip{}, err
		}
		err = InvalidTransitionError{TripID: tripID, Current: trip.Status, Event: in.Type, Allowed: allowedEvents(trip)}
		transitionsRejected.WithLabelValues(in.Type.String()).Inc()
		return model.Trip{}, err
	}

	lock := m.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	trip, err := m.store.GetTrip(tripID)
	if err != nil {
		return model.Trip{}, err
	}
	if !eventAllowed(trip, in.Type) {
		transitionsRejected.WithLabelValues(in.Type.String()).Inc()
		return model.Trip{}, InvalidTransitionError{
			TripID:  tripID,
			Current: trip.Status,
			Event:   in.Type,
			Allowed: allowedEvents(trip),
		}
	}

	from := trip.Status
	readVersion := trip.Version
	now := time.Now().UTC()

	// Hold the involved drivers' locks across the whole read-check-write so
	// a concurrent assignment cannot flip a driver between the availability
	// check and the status update.
	switch in.Type {
	case model.EventTripAssigned:
		unlock := m.lockDrivers(in.DriverID, trip.DriverID)
		defer unlock()
	case model.EventDriverUnassigned, model.EventTripCancelled, model.EventTripCompleted:
		unlock := m.lockDrivers(trip.DriverID)
		defer unlock()
	}

	// Resolve everything that can fail before the first write.
	var newDriver, oldDriver *model.Driver
	switch in.Type {
	case model.EventTripAssigned:
		d, err := m.store.GetDriver(in.DriverID)
		if err != nil {
			return model.Trip{}, err
		}
		if d.Status != model.DriverAvailable {
			return model.Trip{}, IneligibleDriverError{DriverID: d.ID, Reason: "driver is " + d.Status.String()}
		}
		v, err := m.store.GetVehicle(d.VehicleID)
		if err != nil {
			return model.Trip{}, err
		}
		if err := dispatch.CheckEligibility(d, v, trip); err != nil {
			return model.Trip{}, IneligibleDriverError{DriverID: d.ID, Reason: err.Error()}
		}
		newDriver = &d
		if trip.DriverID != "" && trip.DriverID != d.ID {
			prev, err := m.store.GetDriver(trip.DriverID)
			if err != nil {
				return model.Trip{}, err
			}
			oldDriver = &prev
		}
	case model.EventDriverUnassigned, model.EventTripCancelled, model.EventTripCompleted:
		if trip.DriverID != "" {
			prev, err := m.store.GetDriver(trip.DriverID)
			if err != nil {
				return model.Trip{}, err
			}
			oldDriver = &prev
		}
	}

	// Trip mutation.
	switch in.Type {
	case model.EventTripAssigned:
		trip.Status = model.StatusAssigned
		trip.DriverID = newDriver.ID
		trip.VehicleID = newDriver.VehicleID
	case model.EventDriverUnassigned:
		trip.Status = model.StatusUnassigned
		trip.DriverID = ""
		trip.VehicleID = ""
	case model.EventArrivedPickup:
		trip.Status = model.StatusArrivedPickup
		trip.Pickup.ActualTime = &now
	case model.EventPassengerOnboard:
		trip.Status = model.StatusOnTrip
		if trip.Pickup.ActualTime == nil {
			trip.Pickup.ActualTime = &now
		}
	case model.EventArrivedDropoff:
		trip.Status = model.StatusArrivedDropoff
		trip.Dropoff.ActualTime = &now
	case model.EventTripCompleted:
		trip.Status = model.StatusCompleted
		if trip.Dropoff.ActualTime == nil {
			trip.Dropoff.ActualTime = &now
		}
	case model.EventTripCancelled:
		trip.Status = model.StatusCancelled
	default:
		trip.Status = transitions[in.Type].to
	}

	updated, err := m.store.UpdateTripVersioned(trip, readVersion)
	if err != nil {
		transitionsRejected.WithLabelValues(in.Type.String()).Inc()
		return model.Trip{}, err
	}

	m.applyDriverEffects(in.Type, updated, newDriver, oldDriver)

	ev := m.store.AppendEvent(model.TripEvent{
		TripID:    updated.ID,
		Type:      in.Type,
		Timestamp: now,
		Location:  in.Location,
		Notes:     in.Notes,
		CreatedBy: orSystem(in.CreatedBy),
	})
	transitionsApplied.WithLabelValues(in.Type.String()).Inc()

	if m.auditStore != nil {
		rec := audit.Record{
			Timestamp: ev.Timestamp,
			TripID:    updated.ID,
			Event:     in.Type,
			From:      from,
			To:        updated.Status,
			DriverID:  updated.DriverID,
			Notes:     in.Notes,
			CreatedBy: ev.CreatedBy,
		}
		if err := m.auditStore.Append(context.Background(), rec); err != nil {
			m.log.Errorf("audit append: %v", err)
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.TransitionEvent{
			TripID:   updated.ID,
			Event:    in.Type,
			From:     from,
			To:       updated.Status,
			DriverID: updated.DriverID,
			Time:     now,
		})
	}
	m.log.Debugw("transition applied", map[string]any{
		"trip":  updated.ID,
		"event": in.Type.String(),
		"from":  from.String(),
		"to":    updated.Status.String(),
	})
	return updated, nil
}

// applyDriverEffects flips driver statuses and updates rolling stats for the
// transitions that touch a driver.
func (m *Machine) applyDriverEffects(ev model.EventType, trip model.Trip, newDriver, oldDriver *model.Driver) {
	switch ev {
	case model.EventTripAssigned:
		if oldDriver != nil {
			m.releaseDriver(*oldDriver)
		}
		d := *newDriver
		d.Status = model.DriverOnTrip
		if _, err := m.store.UpdateDriver(d); err != nil {
			m.log.Errorf("driver %s status update: %v", d.ID, err)
		}
		m.publishAssignment(trip, d.ID, true)
	case model.EventDriverUnassigned, model.EventTripCancelled:
		if oldDriver != nil {
			m.releaseDriver(*oldDriver)
			m.publishAssignment(trip, oldDriver.ID, false)
		}
	case model.EventTripCompleted:
		if oldDriver != nil {
			m.completeForDriver(trip, *oldDriver)
			m.publishAssignment(trip, oldDriver.ID, false)
		}
	}
}

func (m *Machine) releaseDriver(d model.Driver) {
	d.Status = model.DriverAvailable
	if _, err := m.store.UpdateDriver(d); err != nil {
		m.log.Errorf("driver %s release: %v", d.ID, err)
	}
}

// completeForDriver updates the driver's rolling stats and returns them to
// the available pool. The on-time rate here uses the 15-minute pickup rule;
// the dropoff-based aggregate lives in the kpi package.
func (m *Machine) completeForDriver(trip model.Trip, d model.Driver) {
	d.Status = model.DriverAvailable
	d.Stats.TripsToday++
	d.Stats.TotalMiles += trip.EstimatedMiles
	d.Stats.OnTimeRate = m.onTimeRateToday(d.ID)
	if _, err := m.store.UpdateDriver(d); err != nil {
		m.log.Errorf("driver %s stats update: %v", d.ID, err)
	}
	if trip.VehicleID != "" {
		if v, err := m.store.GetVehicle(trip.VehicleID); err == nil {
			v.Mileage += trip.EstimatedMiles
			if _, err := m.store.UpdateVehicle(v); err != nil {
				m.log.Errorf("vehicle %s mileage update: %v", v.ID, err)
			}
		}
	}
}

// onTimeRateToday computes the share of today's completed trips for the
// driver whose actual pickup was within 15 minutes of the scheduled time.
func (m *Machine) onTimeRateToday(driverID string) float64 {
	completed := model.StatusCompleted
	day := startOfDay(time.Now().UTC())
	trips := m.store.ListTrips(store.TripFilter{
		Status:        &completed,
		DriverID:      driverID,
		ScheduledFrom: day,
		ScheduledTo:   day.AddDate(0, 0, 1),
	})
	if len(trips) == 0 {
		return 0
	}
	onTime := 0
	for _, t := range trips {
		if PickupOnTime(t) {
			onTime++
		}
	}
	return 100 * float64(onTime) / float64(len(trips))
}

// PickupOnTime applies the 15-minute pickup rule. Trips without both a
// scheduled and an actual pickup time count as late.
func PickupOnTime(t model.Trip) bool {
	if t.Pickup.ScheduledTime == nil || t.Pickup.ActualTime == nil {
		return false
	}
	return t.Pickup.ActualTime.Sub(*t.Pickup.ScheduledTime) <= 15*time.Minute
}

// DropoffOnTime applies the dropoff-before-window-start rule used by the
// realtime dashboard aggregate.
func DropoffOnTime(t model.Trip) bool {
	if t.Dropoff.ActualTime == nil {
		return false
	}
	return !t.Dropoff.ActualTime.After(t.ScheduledWindow.Start)
}

func (m *Machine) publishAssignment(trip model.Trip, driverID string, assigned bool) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.AssignmentEvent{
		TripID:    trip.ID,
		DriverID:  driverID,
		VehicleID: trip.VehicleID,
		Assigned:  assigned,
		Time:      time.Now().UTC(),
	})
}

func orSystem(s string) string {
	if s == "" {
		return "system"
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
