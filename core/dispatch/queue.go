package dispatch

import (
	"fmt"
	"sort"

	"github.com/letstalk-code/routecare/core/model"
)

// View selects which trips appear in the dispatch queue.
type View int

const (
	// ViewNeedsAction shows STAT or unassigned trips needing immediate
	// operator attention.
	ViewNeedsAction View = iota
	ViewDischarge
	ViewScheduled
	ViewAll
)

func (v View) String() string {
	switch v {
	case ViewNeedsAction:
		return "needs_action"
	case ViewDischarge:
		return "discharge"
	case ViewScheduled:
		return "scheduled"
	case ViewAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseView converts a wire string to a View.
func ParseView(s string) (View, error) {
	switch s {
	case "needs_action", "":
		return ViewNeedsAction, nil
	case "discharge":
		return ViewDischarge, nil
	case "scheduled":
		return ViewScheduled, nil
	case "all":
		return ViewAll, nil
	}
	return 0, model.ValidationError{Field: "view", Reason: fmt.Sprintf("unknown view %q", s)}
}

func (v View) matches(t model.Trip) bool {
	switch v {
	case ViewNeedsAction:
		return t.Priority == model.PriorityStat || t.Status == model.StatusUnassigned
	case ViewDischarge:
		return t.Type == model.TripDischarge
	case ViewScheduled:
		return t.Priority == model.PriorityScheduled
	default:
		return true
	}
}

// OrderQueue filters trips by the view and orders them for operator review:
// STAT pinned first, then unassigned, equal trips keep their input order.
// Recomputed on every query; holds no state.
func OrderQueue(trips []model.Trip, v View) []model.Trip {
	var res []model.Trip
	for _, t := range trips {
		if v.matches(t) {
			res = append(res, t)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		aStat := a.Priority == model.PriorityStat
		bStat := b.Priority == model.PriorityStat
		if aStat != bStat {
			return aStat
		}
		aUn := a.Status == model.StatusUnassigned
		bUn := b.Status == model.StatusUnassigned
		if aUn != bUn {
			return aUn
		}
		return false
	})
	return res
}
