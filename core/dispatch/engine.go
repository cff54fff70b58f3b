package dispatch

import (
	"time"

	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// Engine binds the scorer to the entity store. Suggestion reads run under
// snapshot semantics: scores may lag concurrent writes by one read.
type Engine struct {
	store  *store.MemoryStore
	scorer SmartScorer
}

// NewEngine creates an engine over the given store.
func NewEngine(st *store.MemoryStore, scorer SmartScorer) *Engine {
	return &Engine{store: st, scorer: scorer}
}

// SuggestDrivers ranks drivers for the trip. n caps the result; n <= 0 uses
// the configured default. An empty list is a legitimate result, not an error.
func (e *Engine) SuggestDrivers(tripID string, n int) (Suggestions, error) {
	trip, err := e.store.GetTrip(tripID)
	if err != nil {
		return Suggestions{}, err
	}
	if n <= 0 {
		n = e.scorer.TopN()
	}
	ranked := e.scorer.Rank(trip, e.candidates(), time.Now().UTC())
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return Suggestions{
		TripID:      tripID,
		Suggestions: ranked,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (e *Engine) candidates() []Candidate {
	drivers := e.store.ListDrivers(store.DriverFilter{})
	cands := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		v, err := e.store.GetVehicle(d.VehicleID)
		if err != nil {
			continue
		}
		c := Candidate{Driver: d, Vehicle: v}
		if p, ok := e.store.LatestPing(d.ID); ok {
			c.Location = &p
		}
		cands = append(cands, c)
	}
	return cands
}

// Queue returns the prioritized trip list for the given view.
func (e *Engine) Queue(v View) []model.Trip {
	queueQueries.WithLabelValues(v.String()).Inc()
	return OrderQueue(e.store.ListTrips(store.TripFilter{}), v)
}
