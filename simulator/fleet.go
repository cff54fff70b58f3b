package main

import (
	"fmt"
	"math/rand"
	"time"
)

var fleetRng = rand.New(rand.NewSource(time.Now().UnixNano()))

// FleetConfig holds parameters for bulk fleet generation.
type FleetConfig struct {
	Size        int
	CenterLat   float64
	CenterLng   float64
	RadiusMiles float64
	SpeedMph    float64
}

// GenerateFleet creates Size drivers with IDs drv0001..drvNNNN scattered
// uniformly within the service radius.
func GenerateFleet(cfg FleetConfig) []SimulatedDriver {
	if cfg.Size <= 0 {
		return nil
	}
	radiusDeg := cfg.RadiusMiles / milesPerDegree
	ds := make([]SimulatedDriver, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		id := fmt.Sprintf("drv%04d", i+1)
		ds[i] = SimulatedDriver{
			ID: id,
			Route: &Route{
				Lat:      cfg.CenterLat + (fleetRng.Float64()*2-1)*radiusDeg,
				Lng:      cfg.CenterLng + (fleetRng.Float64()*2-1)*radiusDeg,
				SpeedMph: cfg.SpeedMph,
			},
		}
	}
	return ds
}
