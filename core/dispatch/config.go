package dispatch

// Config defines scoring weights and suggestion settings. Weights are policy
// knobs, not invariants; defaults favor proximity.
type Config struct {
	DistanceWeight      float64 `json:"distance_weight"`
	OnTimeWeight        float64 `json:"on_time_weight"`
	AvailabilityWeight  float64 `json:"availability_weight"`
	CertificationWeight float64 `json:"certification_weight"`
	ZoneWeight          float64 `json:"zone_weight"`
	// TopN caps how many suggestions are returned by default.
	TopN int `json:"top_n"`
	// ExcludeBusyDrivers drops on_trip drivers entirely instead of
	// soft-including them as "available after current trip" options.
	ExcludeBusyDrivers bool `json:"exclude_busy_drivers"`
}

// SetDefaults applies the default scoring policy.
func (c *Config) SetDefaults() {
	if c.DistanceWeight == 0 {
		c.DistanceWeight = 0.40
	}
	if c.OnTimeWeight == 0 {
		c.OnTimeWeight = 0.25
	}
	if c.AvailabilityWeight == 0 {
		c.AvailabilityWeight = 0.20
	}
	if c.CertificationWeight == 0 {
		c.CertificationWeight = 0.10
	}
	if c.ZoneWeight == 0 {
		c.ZoneWeight = 0.05
	}
	if c.TopN == 0 {
		c.TopN = 4
	}
}
