// Package app wires the store, lifecycle machine, dispatch engine and
// transports into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apidashboard "github.com/letstalk-code/routecare/api/dashboard"
	apidispatch "github.com/letstalk-code/routecare/api/dispatch"
	apidrivers "github.com/letstalk-code/routecare/api/drivers"
	apistream "github.com/letstalk-code/routecare/api/stream"
	apitrips "github.com/letstalk-code/routecare/api/trips"
	"github.com/letstalk-code/routecare/config"
	"github.com/letstalk-code/routecare/core/audit"
	"github.com/letstalk-code/routecare/core/broadcast"
	"github.com/letstalk-code/routecare/core/dispatch"
	"github.com/letstalk-code/routecare/core/events"
	"github.com/letstalk-code/routecare/core/lifecycle"
	coremetrics "github.com/letstalk-code/routecare/core/metrics"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/monitoring"
	coremqtt "github.com/letstalk-code/routecare/core/mqtt"
	"github.com/letstalk-code/routecare/core/prediction"
	"github.com/letstalk-code/routecare/core/store"
	"github.com/letstalk-code/routecare/infra/kpi"
	"github.com/letstalk-code/routecare/infra/logger"
	"github.com/letstalk-code/routecare/infra/metrics"
	inframonitoring "github.com/letstalk-code/routecare/infra/monitoring"
	"github.com/letstalk-code/routecare/infra/mqtt"
	"github.com/letstalk-code/routecare/internal/eventbus"
	"github.com/letstalk-code/routecare/jobs/statsreset"
)

// Service orchestrates the dispatch backend.
type Service struct {
	Store       *store.MemoryStore
	Machine     *lifecycle.Machine
	Engine      *dispatch.Engine
	Broadcaster *broadcast.Broadcaster

	bus           *eventbus.Bus
	sink          coremetrics.MetricsSink
	auditStore    audit.Store
	statsHist     *kpi.SQLiteStore
	mqttClient    *mqtt.PahoClient
	httpAddr      string
	promPort      string
	snapshotEvery time.Duration
	handler       http.Handler
	log           logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	st := store.NewMemoryStore()
	machine := lifecycle.NewMachine(st, logger.New("lifecycle"))
	bus := eventbus.New()
	machine.SetBus(bus)

	monitor, err := inframonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	monitoring.Init(monitor)

	auditStore, err := cfg.Audit.NewStore()
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	machine.SetAuditStore(auditStore)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	engine := dispatch.NewEngine(st, dispatch.NewSmartScorer(cfg.Dispatch))
	broadcaster := broadcast.New(st, logger.New("broadcast"), cfg.Broadcast)
	broadcaster.SetRiskEngine(prediction.NewHeuristicEngine())

	snapCfg := cfg.Broadcast
	snapCfg.SetDefaults()

	svc := &Service{
		Store:         st,
		Machine:       machine,
		Engine:        engine,
		Broadcaster:   broadcaster,
		bus:           bus,
		sink:          sink,
		auditStore:    auditStore,
		httpAddr:      cfg.HTTP.Addr,
		promPort:      cfg.Metrics.PrometheusPort,
		snapshotEvery: time.Duration(snapCfg.IntervalSeconds) * time.Second,
		log:           logg,
	}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT, func(p model.GPSPing) {
			if err := machine.RecordPing(p); err != nil {
				logg.Warnf("ping rejected for %s: %v", p.DriverID, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqttClient = client
	}

	if cfg.Stats.Path != "" {
		hist, err := kpi.NewSQLiteStore(cfg.Stats.Path)
		if err != nil {
			return nil, fmt.Errorf("stats history: %w", err)
		}
		svc.statsHist = hist
	}

	if cfg.Seed.Path != "" {
		if err := svc.loadSeed(cfg.Seed.Path); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/api/trips", apitrips.NewHandler(machine, st))
	mux.Handle("/api/trips/", apitrips.NewHandler(machine, st))
	mux.Handle("/api/dispatch/", apidispatch.NewHandler(engine, sink))
	mux.Handle("/api/drivers", apidrivers.NewHandler(machine, st))
	mux.Handle("/api/drivers/", apidrivers.NewHandler(machine, st))
	mux.Handle("/api/dashboard/", apidashboard.NewHandler(st, auditStore, cfg.HTTP.AuditToken))
	mux.Handle("/api/stream", apistream.NewHandler(broadcaster, logger.New("stream")))
	svc.handler = mux

	return svc, nil
}

// Handler exposes the assembled API router, mainly for tests.
func (s *Service) Handler() http.Handler { return s.handler }

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.forwardEvents(ctx)
	if _, ok := s.sink.(coremetrics.FleetSnapshotRecorder); ok {
		go s.recordFleetSnapshots(ctx)
	}
	if s.statsHist != nil {
		go statsreset.Run(ctx, s.Store, s.statsHist, logger.New("statsreset"))
	}
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.httpAddr, Handler: s.handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("API listening on %s", s.httpAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// forwardEvents drains the bus into the metrics sink and notifies drivers of
// new assignments over MQTT.
func (s *Service) forwardEvents(ctx context.Context) {
	defer monitoring.Recover()
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.TransitionEvent:
				if err := s.sink.RecordTransition(ev); err != nil {
					s.log.Warnf("record transition: %v", err)
				}
				if ev.Event == model.EventTripCompleted {
					s.recordTripDuration(ev)
				}
			case events.AssignmentEvent:
				if rec, ok := s.sink.(coremetrics.AssignmentRecorder); ok {
					if err := rec.RecordAssignment(ev); err != nil {
						s.log.Warnf("record assignment: %v", err)
					}
				}
				if ev.Assigned {
					s.notifyDriver(ev)
				}
			case events.TelemetryEvent:
				if rec, ok := s.sink.(coremetrics.TelemetryRecorder); ok {
					if err := rec.RecordTelemetry(ev); err != nil {
						s.log.Warnf("record telemetry: %v", err)
					}
				}
			}
		}
	}
}

// recordTripDuration reports the pickup-to-dropoff duration of a completed
// trip to sinks that track them. Trips missing either actual timestamp are
// skipped.
func (s *Service) recordTripDuration(ev events.TransitionEvent) {
	rec, ok := s.sink.(coremetrics.TripDurationRecorder)
	if !ok {
		return
	}
	trip, err := s.Store.GetTrip(ev.TripID)
	if err != nil {
		s.log.Warnf("trip duration for %s: %v", ev.TripID, err)
		return
	}
	if trip.Pickup.ActualTime == nil || trip.Dropoff.ActualTime == nil {
		return
	}
	d := coremetrics.TripDuration{
		TripID:   trip.ID,
		Type:     trip.Type,
		Duration: trip.Dropoff.ActualTime.Sub(*trip.Pickup.ActualTime),
		OnTime:   lifecycle.PickupOnTime(trip),
	}
	if err := rec.RecordTripDuration([]coremetrics.TripDuration{d}); err != nil {
		s.log.Warnf("record trip duration: %v", err)
	}
}

// recordFleetSnapshots samples driver availability on the broadcast interval.
func (s *Service) recordFleetSnapshots(ctx context.Context) {
	defer monitoring.Recover()
	rec := s.sink.(coremetrics.FleetSnapshotRecorder)
	ticker := time.NewTicker(s.snapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			snap := s.fleetSnapshot(now.UTC())
			if err := rec.RecordFleetSnapshot(snap); err != nil {
				s.log.Warnf("record fleet snapshot: %v", err)
			}
		}
	}
}

func (s *Service) fleetSnapshot(now time.Time) coremetrics.FleetSnapshotEvent {
	snap := coremetrics.FleetSnapshotEvent{Time: now}
	for _, d := range s.Store.ListDrivers(store.DriverFilter{}) {
		if d.Status != model.DriverOffDuty {
			snap.ActiveDrivers++
		}
		if d.Status == model.DriverAvailable {
			snap.AvailableDrivers++
		}
	}
	return snap
}

func (s *Service) notifyDriver(ev events.AssignmentEvent) {
	if s.mqttClient == nil {
		return
	}
	trip, err := s.Store.GetTrip(ev.TripID)
	if err != nil {
		s.log.Warnf("notify driver: %v", err)
		return
	}
	order := coremqtt.AssignmentOrder{
		TripID:        trip.ID,
		PickupAddress: trip.Pickup.Address,
		PickupLat:     trip.Pickup.Lat,
		PickupLng:     trip.Pickup.Lng,
		PickupTime:    trip.ScheduledWindow.Start,
		Priority:      trip.Priority.String(),
	}
	go func() {
		msgID, err := s.mqttClient.NotifyAssignment(ev.DriverID, order)
		if err != nil {
			s.log.Errorf("assignment notify %s: %v", ev.DriverID, err)
			monitoring.CaptureException(err, map[string]string{
				"trip_id":   trip.ID,
				"driver_id": ev.DriverID,
			})
			return
		}
		if ok, err := s.mqttClient.WaitForAck(msgID, 30*time.Second); err != nil || !ok {
			s.log.Warnf("assignment %s not acknowledged by %s", trip.ID, ev.DriverID)
		}
	}()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	s.bus.Close()
	monitoring.Flush(2 * time.Second)
	if s.statsHist != nil {
		if err := s.statsHist.Close(); err != nil {
			s.log.Errorf("stats history close: %v", err)
		}
	}
	if s.auditStore != nil {
		return s.auditStore.Close()
	}
	return nil
}
