package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/letstalk-code/routecare/core/events"
	coremetrics "github.com/letstalk-code/routecare/core/metrics"
	"github.com/letstalk-code/routecare/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTransition writes the applied transition as a line protocol event.
func (s *InfluxSink) RecordTransition(ev events.TransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_event").
		AddTag("trip_id", ev.TripID).
		AddTag("event", ev.Event.String()).
		AddTag("to_status", ev.To.String()).
		AddTag("component", "lifecycle")
	if ev.DriverID != "" {
		p = p.AddTag("driver_id", ev.DriverID)
	}
	p = p.AddField("from_status", ev.From.String()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAssignment records a driver gaining or losing a trip.
func (s *InfluxSink) RecordAssignment(ev events.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("driver_assignment").
		AddTag("trip_id", ev.TripID).
		AddTag("driver_id", ev.DriverID).
		AddTag("assigned", strconv.FormatBool(ev.Assigned)).
		AddTag("component", "lifecycle")
	if ev.VehicleID != "" {
		p = p.AddTag("vehicle_id", ev.VehicleID)
	}
	p = p.AddField("count", 1).SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTelemetry persists a driver GPS ping.
func (s *InfluxSink) RecordTelemetry(ev events.TelemetryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ping := ev.Ping
	p := write.NewPointWithMeasurement("driver_ping").
		AddTag("driver_id", ping.DriverID).
		AddTag("component", "telemetry").
		AddField("lat", round6(ping.Lat)).
		AddField("lng", round6(ping.Lng)).
		AddField("speed_mph", round3(ping.Speed)).
		AddField("heading", round3(ping.Heading)).
		SetTime(ping.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordQueueDepth records the size of a dispatch queue view.
func (s *InfluxSink) RecordQueueDepth(ev coremetrics.QueueDepthEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_queue_depth").
		AddTag("view", ev.View).
		AddTag("component", "dispatch").
		AddField("depth", ev.Depth).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSuggestion records a driver ranking computation.
func (s *InfluxSink) RecordSuggestion(ev coremetrics.SuggestionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("driver_suggestion").
		AddTag("trip_id", ev.TripID).
		AddTag("component", "dispatch").
		AddField("candidates", ev.Candidates).
		AddField("top_score", ev.TopScore).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFleetSnapshot records a periodic driver availability snapshot.
func (s *InfluxSink) RecordFleetSnapshot(ev coremetrics.FleetSnapshotEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_snapshot").
		AddTag("component", "broadcast").
		AddField("active_drivers", ev.ActiveDrivers).
		AddField("available_drivers", ev.AvailableDrivers).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
