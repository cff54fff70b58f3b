package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/prediction"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/infra/logger"
)

func seed(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	now := time.Now().UTC()
	_, err := st.CreateTrip(model.Trip{
		ID:              "trip-1",
		Pickup:          model.TripStop{Address: "12 Oak St"},
		Dropoff:         model.TripStop{Address: "DaVita Clinic"},
		ScheduledWindow: model.TimeWindow{Start: now, End: now.Add(time.Hour)},
	})
	require.NoError(t, err)
	_, err = st.CreateDriver(model.Driver{ID: "drv-1", Name: "Maya Torres", Status: model.DriverAvailable})
	require.NoError(t, err)
	return st
}

func TestSubscribeSendsImmediateSnapshot(t *testing.T) {
	st := seed(t)
	b := New(st, logger.NopLogger{}, Config{IntervalSeconds: 60})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	select {
	case snap := <-ch:
		require.Len(t, snap.Trips, 1)
		require.Len(t, snap.Drivers, 1)
		require.Equal(t, 1, snap.Kpis.AvailableDrivers)
		require.False(t, snap.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no snapshot before the first tick")
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	st := seed(t)
	b := New(st, logger.NopLogger{}, Config{IntervalSeconds: 60})
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx)
	<-ch
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel must close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}

func TestSnapshotCarriesLateRisk(t *testing.T) {
	st := seed(t)
	b := New(st, logger.NopLogger{}, Config{IntervalSeconds: 60})
	b.SetRiskEngine(&prediction.MockRiskEngine{
		Risks: map[string]model.LateRisk{"trip-1": model.RiskHigh},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap := <-b.Subscribe(ctx)
	require.Len(t, snap.Trips, 1)
	require.Equal(t, model.RiskHigh, snap.Trips[0].LateRisk)
}

func TestStoreChangePushesSnapshot(t *testing.T) {
	st := seed(t)
	b := New(st, logger.NopLogger{}, Config{IntervalSeconds: 60})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	<-ch

	now := time.Now().UTC()
	_, err := st.CreateTrip(model.Trip{
		ID:              "trip-2",
		Pickup:          model.TripStop{Address: "3 Elm St"},
		Dropoff:         model.TripStop{Address: "Mercy General"},
		ScheduledWindow: model.TimeWindow{Start: now, End: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	select {
	case snap := <-ch:
		require.Len(t, snap.Trips, 2, "a write must push a snapshot before the next tick")
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after the store changed")
	}
}

func TestSlowConsumerDropsTicks(t *testing.T) {
	st := seed(t)
	b := New(st, logger.NopLogger{}, Config{IntervalSeconds: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	// Never read: the buffered initial snapshot fills the channel and every
	// later tick must drop instead of blocking the loop.
	time.Sleep(2500 * time.Millisecond)

	first := <-ch
	require.False(t, first.Timestamp.IsZero())
	select {
	case second := <-ch:
		// At most one more tick can race in after the first read.
		require.True(t, second.Timestamp.After(first.Timestamp))
	default:
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	require.Equal(t, 5, c.IntervalSeconds)
	c = Config{IntervalSeconds: 30}
	c.SetDefaults()
	require.Equal(t, 30, c.IntervalSeconds)
}
