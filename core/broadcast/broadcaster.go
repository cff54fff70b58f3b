// Package broadcast pushes full store snapshots to subscribers at a fixed
// cadence. There is no diffing: every tick assembles and sends the complete
// state, so a dropped or slow tick costs nothing but staleness.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/letstalk-code/routecare/core/kpi"
	"github.com/letstalk-code/routecare/core/logger"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/prediction"
	"github.com/letstalk-code/routecare/core/store"
)

// Snapshot is the full state pushed to each subscriber.
type Snapshot struct {
	Trips     []model.Trip   `json:"trips"`
	Drivers   []model.Driver `json:"drivers"`
	Kpis      kpi.Kpis       `json:"kpis"`
	Timestamp time.Time      `json:"timestamp"`
}

// Config defines broadcast settings.
type Config struct {
	// IntervalSeconds between snapshot ticks.
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies the 5-second default cadence.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 5
	}
}

// Broadcaster serves independent snapshot streams. Subscribers share
// nothing: each gets its own goroutine and ticker. Store mutations nudge
// every stream ahead of its next tick.
type Broadcaster struct {
	store    *store.MemoryStore
	log      logger.Logger
	interval time.Duration
	risk     prediction.RiskEngine

	mu    sync.Mutex
	kicks map[chan struct{}]struct{}
}

// New creates a broadcaster over the given store and registers for its
// change notifications.
func New(st *store.MemoryStore, log logger.Logger, cfg Config) *Broadcaster {
	cfg.SetDefaults()
	b := &Broadcaster{
		store:    st,
		log:      log,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		kicks:    map[chan struct{}]struct{}{},
	}
	st.OnChange(b.wake)
	return b
}

// wake pokes every subscriber. Sends never block: a pending kick already
// guarantees a fresh snapshot.
func (b *Broadcaster) wake() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for kick := range b.kicks {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
}

func (b *Broadcaster) addKick() chan struct{} {
	kick := make(chan struct{}, 1)
	b.mu.Lock()
	b.kicks[kick] = struct{}{}
	b.mu.Unlock()
	return kick
}

func (b *Broadcaster) removeKick(kick chan struct{}) {
	b.mu.Lock()
	delete(b.kicks, kick)
	b.mu.Unlock()
}

// SetRiskEngine enables late-risk annotation of snapshot trips.
func (b *Broadcaster) SetRiskEngine(e prediction.RiskEngine) { b.risk = e }

// Subscribe starts a snapshot stream: one snapshot immediately, then one per
// tick or store change until ctx is canceled. On cancellation the ticker is
// stopped and the channel closed; nothing leaks per dropped client. Assembly
// failures are logged and the tick skipped, the stream stays alive.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	kick := b.addKick()
	go func() {
		defer close(ch)
		defer b.removeKick(kick)
		b.send(ctx, ch)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.send(ctx, ch)
			case <-kick:
				b.send(ctx, ch)
			}
		}
	}()
	return ch
}

func (b *Broadcaster) send(ctx context.Context, ch chan<- Snapshot) {
	snap, err := b.assemble()
	if err != nil {
		b.log.Errorf("snapshot assembly: %v", err)
		return
	}
	select {
	case ch <- snap:
	case <-ctx.Done():
	default:
		// Slow consumer: drop this tick rather than block the loop.
	}
}

func (b *Broadcaster) assemble() (Snapshot, error) {
	now := time.Now().UTC()
	trips := b.store.ListTrips(store.TripFilter{})
	if b.risk != nil {
		for i := range trips {
			trips[i].LateRisk = b.risk.AssessLateRisk(trips[i], now)
		}
	}
	return Snapshot{
		Trips:     trips,
		Drivers:   b.store.ListDrivers(store.DriverFilter{}),
		Kpis:      kpi.Compute(b.store, now),
		Timestamp: now,
	}, nil
}
