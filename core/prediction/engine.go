package prediction

import (
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// RiskEngine assesses how likely a trip is to miss its pickup window.
type RiskEngine interface {
	// AssessLateRisk returns the risk level for the trip as of now.
	AssessLateRisk(trip model.Trip, now time.Time) model.LateRisk
}

// HeuristicEngine grades risk from the slack between now and the scheduled
// window start, tightened when the trip has not progressed far enough for
// the time remaining.
type HeuristicEngine struct {
	// HighSlack is the remaining-time threshold below which an unstarted
	// trip is flagged high risk.
	HighSlack time.Duration
	// MediumSlack is the threshold for medium risk.
	MediumSlack time.Duration
}

// NewHeuristicEngine returns an engine with 15m/45m thresholds.
func NewHeuristicEngine() HeuristicEngine {
	return HeuristicEngine{HighSlack: 15 * time.Minute, MediumSlack: 45 * time.Minute}
}

func (e HeuristicEngine) AssessLateRisk(trip model.Trip, now time.Time) model.LateRisk {
	if trip.Status.IsTerminal() {
		return model.RiskLow
	}
	slack := trip.ScheduledWindow.Start.Sub(now)

	switch trip.Status {
	case model.StatusUnassigned:
		if slack < e.HighSlack {
			return model.RiskHigh
		}
		if slack < e.MediumSlack {
			return model.RiskMedium
		}
	case model.StatusAssigned, model.StatusEnRoutePickup:
		if slack < 0 {
			return model.RiskHigh
		}
		if slack < e.HighSlack {
			return model.RiskMedium
		}
	default:
		// Passenger is at or past the pickup point; the window is met.
	}
	return model.RiskLow
}
