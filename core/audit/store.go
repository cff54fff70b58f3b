// Package audit persists the trip transition trail outside the in-memory
// store so operators can reconstruct what happened to a trip after the
// process restarts. Records are append-only.
package audit

import (
	"context"
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// Record captures one applied trip transition.
type Record struct {
	Timestamp time.Time        `json:"timestamp"`
	TripID    string           `json:"trip_id"`
	Event     model.EventType  `json:"event"`
	From      model.TripStatus `json:"from"`
	To        model.TripStatus `json:"to"`
	DriverID  string           `json:"driver_id,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	CreatedBy string           `json:"created_by"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start  time.Time
	End    time.Time
	TripID string
	Event  *model.EventType
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.TripID != "" && r.TripID != q.TripID {
		return false
	}
	if q.Event != nil && r.Event != *q.Event {
		return false
	}
	return true
}
