// Package statsreset rolls the in-memory per-driver daily counters into the
// persistent history store and zeroes them for the new day.
package statsreset

import (
	"context"
	"fmt"
	"time"

	"github.com/letstalk-code/routecare/core/logger"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/infra/kpi"
)

// History receives the completed day's stats.
type History interface {
	Add(kpi.Record) error
}

// Rollover snapshots every driver's counters for the given day into history
// and resets them. Drivers with no activity are skipped.
func Rollover(st *store.MemoryStore, hist History, day time.Time) error {
	for _, d := range st.ListDrivers(store.DriverFilter{}) {
		if d.Stats.TripsToday == 0 && d.Stats.TotalMiles == 0 {
			continue
		}
		rec := kpi.Record{
			DriverID:   d.ID,
			Day:        day,
			Trips:      d.Stats.TripsToday,
			Miles:      d.Stats.TotalMiles,
			OnTimeRate: d.Stats.OnTimeRate,
		}
		if err := hist.Add(rec); err != nil {
			return fmt.Errorf("driver %s: %w", d.ID, err)
		}
		// Re-read before resetting: a completion landing between the
		// snapshot and the reset carries into the new day instead of
		// vanishing.
		fresh, err := st.GetDriver(d.ID)
		if err != nil {
			return fmt.Errorf("reset driver %s: %w", d.ID, err)
		}
		fresh.Stats.TripsToday -= rec.Trips
		fresh.Stats.TotalMiles -= rec.Miles
		fresh.Stats.OnTimeRate = 0
		if _, err := st.UpdateDriver(fresh); err != nil {
			return fmt.Errorf("reset driver %s: %w", d.ID, err)
		}
	}
	return nil
}

// Run performs a rollover at every local midnight until ctx is cancelled.
func Run(ctx context.Context, st *store.MemoryStore, hist History, log logger.Logger) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			if err := Rollover(st, hist, now); err != nil {
				log.Errorf("stats rollover: %v", err)
			} else {
				log.Infof("driver stats rolled over for %s", now.Format("2006-01-02"))
			}
		}
	}
}
