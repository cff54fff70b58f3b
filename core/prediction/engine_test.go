package prediction

import (
	"testing"
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

func tripAt(status model.TripStatus, slack time.Duration, now time.Time) model.Trip {
	return model.Trip{
		ID:     "trip-1",
		Status: status,
		ScheduledWindow: model.TimeWindow{
			Start: now.Add(slack),
			End:   now.Add(slack + 30*time.Minute),
		},
	}
}

func TestHeuristicEngine_AssessLateRisk(t *testing.T) {
	eng := NewHeuristicEngine()
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status model.TripStatus
		slack  time.Duration
		want   model.LateRisk
	}{
		{"unassigned far out", model.StatusUnassigned, 2 * time.Hour, model.RiskLow},
		{"unassigned closing in", model.StatusUnassigned, 30 * time.Minute, model.RiskMedium},
		{"unassigned imminent", model.StatusUnassigned, 10 * time.Minute, model.RiskHigh},
		{"assigned with slack", model.StatusAssigned, time.Hour, model.RiskLow},
		{"en route tight", model.StatusEnRoutePickup, 10 * time.Minute, model.RiskMedium},
		{"assigned past window", model.StatusAssigned, -5 * time.Minute, model.RiskHigh},
		{"on trip past window", model.StatusOnTrip, -time.Hour, model.RiskLow},
		{"completed", model.StatusCompleted, -time.Hour, model.RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := eng.AssessLateRisk(tripAt(tc.status, tc.slack, now), now)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMockRiskEngine(t *testing.T) {
	eng := MockRiskEngine{Risks: map[string]model.LateRisk{"trip-1": model.RiskHigh}}
	now := time.Now()
	if got := eng.AssessLateRisk(model.Trip{ID: "trip-1"}, now); got != model.RiskHigh {
		t.Fatalf("expected configured risk, got %v", got)
	}
	if got := eng.AssessLateRisk(model.Trip{ID: "trip-2"}, now); got != model.RiskLow {
		t.Fatalf("expected default low, got %v", got)
	}
}
