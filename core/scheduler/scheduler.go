package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/letstalk-code/routecare/core/model"
)

// ShiftWindow represents an on-duty period for a driver.
type ShiftWindow struct {
	Start time.Time
	End   time.Time
}

// RecurringTemplate is a standing order that repeats on fixed weekdays.
type RecurringTemplate struct {
	ID              string             `json:"id" yaml:"id"`
	PatientName     string             `json:"patient_name" yaml:"patient_name"`
	Pickup          model.TripStop     `json:"pickup" yaml:"pickup"`
	Dropoff         model.TripStop     `json:"dropoff" yaml:"dropoff"`
	Weekdays        []time.Weekday     `json:"weekdays" yaml:"weekdays"`
	PickupTime      string             `json:"pickup_time" yaml:"pickup_time"` // HH:MM local
	DurationMinutes int                `json:"duration_minutes" yaml:"duration_minutes"`
	Type            model.TripType     `json:"type" yaml:"type"`
	Priority        model.TripPriority `json:"priority" yaml:"priority"`
	RequiredCert    string             `json:"required_cert,omitempty" yaml:"required_cert,omitempty"`
}

// PlannedTrip is one templated trip assigned to a driver for a day.
type PlannedTrip struct {
	TemplateID     string    `json:"template_id"`
	PatientName    string    `json:"patient_name"`
	DriverID       string    `json:"driver_id"`
	PickupAt       time.Time `json:"pickup_at"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
}

// Planner generates day-ahead plans for recurring trips.
type Planner struct {
	Config    PlannerConfig
	Drivers   []model.Driver
	Shifts    map[string][]ShiftWindow
	Templates []RecurringTemplate
}

// GeneratePlan expands all templates active on the given day into driver
// assignments. Every template due that day must be covered or the plan fails.
func (p *Planner) GeneratePlan(date time.Time) ([]PlannedTrip, error) {
	if p.Config.MaxTripsPerDriver <= 0 {
		return nil, errors.New("max_trips_per_driver must be positive")
	}

	due := p.templatesFor(date.Weekday())
	if len(due) == 0 {
		return nil, nil
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].PickupTime == due[j].PickupTime {
			return due[i].ID < due[j].ID
		}
		return due[i].PickupTime < due[j].PickupTime
	})

	load := make(map[string]int, len(p.Drivers))
	var plan []PlannedTrip

	for _, tpl := range due {
		pickupAt, err := atClock(date, tpl.PickupTime)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tpl.ID, err)
		}
		dur := time.Duration(tpl.DurationMinutes) * time.Minute
		if dur <= 0 {
			dur = time.Duration(p.Config.DefaultDurationMinutes) * time.Minute
		}

		var pick *model.Driver
		for i := range p.Drivers {
			d := &p.Drivers[i]
			if tpl.RequiredCert != "" && !d.HasCertification(tpl.RequiredCert) {
				continue
			}
			if load[d.ID] >= p.Config.MaxTripsPerDriver {
				continue
			}
			if !p.driverOnShift(d.ID, pickupAt, dur) {
				continue
			}
			if pick == nil || load[d.ID] < load[pick.ID] ||
				(load[d.ID] == load[pick.ID] && d.ID < pick.ID) {
				pick = d
			}
		}
		if pick == nil {
			return nil, fmt.Errorf("no driver can cover template %s at %v", tpl.ID, pickupAt)
		}
		load[pick.ID]++
		plan = append(plan, PlannedTrip{
			TemplateID:     tpl.ID,
			PatientName:    tpl.PatientName,
			DriverID:       pick.ID,
			PickupAt:       pickupAt,
			PickupAddress:  tpl.Pickup.Address,
			DropoffAddress: tpl.Dropoff.Address,
		})
	}
	return plan, nil
}

func (p *Planner) templatesFor(day time.Weekday) []RecurringTemplate {
	var due []RecurringTemplate
	for _, tpl := range p.Templates {
		for _, wd := range tpl.Weekdays {
			if wd == day {
				due = append(due, tpl)
				break
			}
		}
	}
	return due
}

func (p *Planner) driverOnShift(id string, t time.Time, d time.Duration) bool {
	windows := p.Shifts[id]
	end := t.Add(d)
	for _, w := range windows {
		if (t.Equal(w.Start) || t.After(w.Start)) && !end.After(w.End) {
			return true
		}
	}
	return false
}

// BuildTrip materializes a planned trip into a store-ready Trip. The
// scheduled window opens at pickup time and closes after the configured
// grace period.
func (p *Planner) BuildTrip(tpl RecurringTemplate, pt PlannedTrip) model.Trip {
	grace := time.Duration(p.Config.WindowMinutes) * time.Minute
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	sched := pt.PickupAt
	pickup := tpl.Pickup
	pickup.ScheduledTime = &sched
	return model.Trip{
		Type:      tpl.Type,
		Priority:  tpl.Priority,
		Passenger: model.Passenger{Name: tpl.PatientName},
		Pickup:    pickup,
		Dropoff:   tpl.Dropoff,
		ScheduledWindow: model.TimeWindow{
			Start: pt.PickupAt,
			End:   pt.PickupAt.Add(grace),
		},
		DriverID:          pt.DriverID,
		Status:            model.StatusAssigned,
		EstimatedDuration: tpl.DurationMinutes,
	}
}

// WindowsFromShift converts a driver's HH:mm shift into concrete windows
// for the given day. Overnight shifts wrap past midnight.
func WindowsFromShift(s model.Shift, date time.Time) ([]ShiftWindow, error) {
	if s.Start == "" || s.End == "" {
		return nil, nil
	}
	start, err := atClock(date, s.Start)
	if err != nil {
		return nil, err
	}
	end, err := atClock(date, s.End)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return []ShiftWindow{{Start: start, End: end}}, nil
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pickup_time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
