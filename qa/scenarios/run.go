package scenarios

import (
	"testing"
	"time"

	"github.com/letstalk-code/routecare/core/lifecycle"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/infra/logger"
)

// RunScenario replays the scenario through a fresh store and state machine
// and asserts the expected final trip statuses.
func RunScenario(t *testing.T, sc *Scenario) {
	st := store.NewMemoryStore()
	machine := lifecycle.NewMachine(st, logger.NopLogger{})

	for _, vd := range sc.Vehicles {
		v, err := vd.ToModel()
		if err != nil {
			t.Fatalf("vehicle %s: %v", vd.ID, err)
		}
		if _, err := st.CreateVehicle(v); err != nil {
			t.Fatalf("create vehicle %s: %v", vd.ID, err)
		}
	}
	for _, dd := range sc.Drivers {
		d, err := dd.ToModel()
		if err != nil {
			t.Fatalf("driver %s: %v", dd.ID, err)
		}
		if _, err := st.CreateDriver(d); err != nil {
			t.Fatalf("create driver %s: %v", dd.ID, err)
		}
	}

	base := time.Now()
	refs := make(map[string]string, len(sc.Trips))
	for _, td := range sc.Trips {
		trip, err := td.ToModel(base)
		if err != nil {
			t.Fatalf("trip %s: %v", td.Ref, err)
		}
		created, err := machine.CreateTrip(trip, "scenario")
		if err != nil {
			t.Fatalf("create trip %s: %v", td.Ref, err)
		}
		refs[td.Ref] = created.ID
	}

	for i, step := range sc.Steps {
		id, ok := refs[step.Trip]
		if !ok {
			t.Fatalf("step %d references unknown trip %q", i, step.Trip)
		}
		ev, err := model.ParseEventType(step.Event)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		switch ev {
		case model.EventTripAssigned:
			_, err = machine.AssignDriver(id, step.Driver, "scenario")
		case model.EventDriverUnassigned:
			_, err = machine.UnassignDriver(id, "scenario")
		default:
			_, err = machine.Apply(id, lifecycle.EventInput{Type: ev, CreatedBy: "scenario"})
		}
		if step.Fails {
			if err == nil {
				t.Errorf("step %d (%s on %s) expected rejection", i, step.Event, step.Trip)
			}
			continue
		}
		if err != nil {
			t.Fatalf("step %d (%s on %s): %v", i, step.Event, step.Trip, err)
		}
	}

	for ref, want := range sc.Expected.Statuses {
		id, ok := refs[ref]
		if !ok {
			t.Fatalf("expectation references unknown trip %q", ref)
		}
		trip, err := st.GetTrip(id)
		if err != nil {
			t.Fatalf("get trip %s: %v", ref, err)
		}
		if trip.Status.String() != want {
			t.Errorf("trip %s expected status %s, got %s", ref, want, trip.Status)
		}
	}
	for ref, want := range sc.Expected.Events {
		events := st.ListEvents(refs[ref])
		if len(events) != want {
			t.Errorf("trip %s expected %d events, got %d", ref, want, len(events))
		}
	}
}
