package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/letstalk-code/routecare/core/model"
)

// seedFile is the on-disk fixture shape loaded at boot.
type seedFile struct {
	Drivers  []model.Driver  `json:"drivers"`
	Vehicles []model.Vehicle `json:"vehicles"`
	Trips    []model.Trip    `json:"trips"`
}

// loadSeed fills the store from a fixture file. Trips go through the
// lifecycle machine so the audit trail starts at trip_created.
func (s *Service) loadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, v := range seed.Vehicles {
		if _, err := s.Store.CreateVehicle(v); err != nil {
			return fmt.Errorf("vehicle %s: %w", v.ID, err)
		}
	}
	for _, d := range seed.Drivers {
		if _, err := s.Store.CreateDriver(d); err != nil {
			return fmt.Errorf("driver %s: %w", d.ID, err)
		}
	}
	for _, t := range seed.Trips {
		if _, err := s.Machine.CreateTrip(t, "seed"); err != nil {
			return fmt.Errorf("trip %s: %w", t.ID, err)
		}
	}
	s.log.Infof("seeded %d vehicles, %d drivers, %d trips",
		len(seed.Vehicles), len(seed.Drivers), len(seed.Trips))
	return nil
}
