package prediction

import (
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// MockRiskEngine returns configured risk levels per trip ID.
type MockRiskEngine struct {
	Risks map[string]model.LateRisk
}

// AssessLateRisk returns the configured risk for the trip or low.
func (m MockRiskEngine) AssessLateRisk(trip model.Trip, now time.Time) model.LateRisk {
	_ = now
	if m.Risks == nil {
		return model.RiskLow
	}
	if r, ok := m.Risks[trip.ID]; ok {
		return r
	}
	return model.RiskLow
}
