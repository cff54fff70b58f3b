package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/letstalk-code/routecare/core/model"
)

type VehicleDef struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	Type                 string `yaml:"type,omitempty"`
	WheelchairAccessible bool   `yaml:"wheelchair_accessible,omitempty"`
}

func (v VehicleDef) ToModel() (model.Vehicle, error) {
	out := model.Vehicle{
		ID:                   v.ID,
		Name:                 v.Name,
		Capacity:             4,
		WheelchairAccessible: v.WheelchairAccessible,
	}
	if v.Type != "" {
		vt, err := model.ParseVehicleType(v.Type)
		if err != nil {
			return model.Vehicle{}, err
		}
		out.Type = vt
	}
	return out, nil
}

type DriverDef struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Status         string   `yaml:"status,omitempty"`
	VehicleID      string   `yaml:"vehicle_id"`
	Certifications []string `yaml:"certifications,omitempty"`
	Zone           string   `yaml:"zone,omitempty"`
}

func (d DriverDef) ToModel() (model.Driver, error) {
	status := model.DriverAvailable
	if d.Status != "" {
		var err error
		status, err = model.ParseDriverStatus(d.Status)
		if err != nil {
			return model.Driver{}, err
		}
	}
	return model.Driver{
		ID:             d.ID,
		Name:           d.Name,
		Status:         status,
		VehicleID:      d.VehicleID,
		Certifications: d.Certifications,
		Zone:           d.Zone,
	}, nil
}

type TripDef struct {
	Ref            string `yaml:"ref"`
	Type           string `yaml:"type"`
	Priority       string `yaml:"priority"`
	Patient        string `yaml:"patient"`
	Mobility       string `yaml:"mobility,omitempty"`
	PickupAddress  string `yaml:"pickup_address"`
	DropoffAddress string `yaml:"dropoff_address"`
	// WindowOffsetMinutes shifts the pickup window start from scenario
	// start time. The window spans 30 minutes.
	WindowOffsetMinutes int `yaml:"window_offset_minutes"`
}

func (td TripDef) ToModel(base time.Time) (model.Trip, error) {
	trip := model.Trip{
		Passenger: model.Passenger{Name: td.Patient},
		Pickup:    model.TripStop{Address: td.PickupAddress},
		Dropoff:   model.TripStop{Address: td.DropoffAddress},
	}
	if td.Mobility != "" {
		lvl, err := model.ParseMobilityLevel(td.Mobility)
		if err != nil {
			return model.Trip{}, err
		}
		trip.Passenger.MobilityLevel = lvl
	}
	if td.Type != "" {
		t, err := model.ParseTripType(td.Type)
		if err != nil {
			return model.Trip{}, err
		}
		trip.Type = t
	}
	if td.Priority != "" {
		p, err := model.ParseTripPriority(td.Priority)
		if err != nil {
			return model.Trip{}, err
		}
		trip.Priority = p
	}
	start := base.Add(time.Duration(td.WindowOffsetMinutes) * time.Minute)
	trip.ScheduledWindow = model.TimeWindow{Start: start, End: start.Add(30 * time.Minute)}
	return trip, nil
}

type StepDef struct {
	Trip   string `yaml:"trip"`
	Event  string `yaml:"event"`
	Driver string `yaml:"driver,omitempty"`
	// Fails marks steps that must be rejected by the state machine.
	Fails bool `yaml:"fails,omitempty"`
}

type Expected struct {
	// Statuses maps trip refs to their expected final status.
	Statuses map[string]string `yaml:"statuses"`
	// Events maps trip refs to the expected audit trail length.
	Events map[string]int `yaml:"events,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Vehicles    []VehicleDef `yaml:"vehicles"`
	Drivers     []DriverDef  `yaml:"drivers"`
	Trips       []TripDef    `yaml:"trips"`
	Steps       []StepDef    `yaml:"steps"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
