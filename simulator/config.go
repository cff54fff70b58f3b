package main

import (
	"errors"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker      string
	FleetSize   int
	Interval    time.Duration
	AckLatency  time.Duration
	DropRate    float64
	CenterLat   float64
	CenterLng   float64
	RadiusMiles float64
	SpeedMph    float64
	TopicPrefix string
	Verbose     bool
}

// Validate rejects configurations that cannot drive a fleet.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.FleetSize <= 0 {
		return errors.New("fleet-size must be positive")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.New("drop-rate must be within [0,1]")
	}
	if c.SpeedMph <= 0 {
		return errors.New("speed must be positive")
	}
	return nil
}
