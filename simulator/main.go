// The simulator connects a synthetic driver fleet to an MQTT broker. Each
// driver streams GPS pings, drives toward pickup points from incoming
// assignment orders and confirms them, with configurable latency and loss.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strat := RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	drivers := GenerateFleet(FleetConfig{
		Size:        cfg.FleetSize,
		CenterLat:   cfg.CenterLat,
		CenterLng:   cfg.CenterLng,
		RadiusMiles: cfg.RadiusMiles,
		SpeedMph:    cfg.SpeedMph,
	})
	runDrivers(ctx, drivers, cfg, strat)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.FleetSize, "fleet-size", 5, "number of simulated drivers")
	flag.DurationVar(&cfg.Interval, "interval", 10*time.Second, "GPS publish interval")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 0, "order confirmation latency")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "order confirmation drop rate")
	flag.Float64Var(&cfg.CenterLat, "center-lat", 42.3601, "service area center latitude")
	flag.Float64Var(&cfg.CenterLng, "center-lng", -71.0589, "service area center longitude")
	flag.Float64Var(&cfg.RadiusMiles, "radius", 8, "service area radius in miles")
	flag.Float64Var(&cfg.SpeedMph, "speed", 28, "driving speed in mph")
	flag.StringVar(&cfg.TopicPrefix, "topic-prefix", "routecare", "MQTT topic prefix")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}

func runDrivers(ctx context.Context, drivers []SimulatedDriver, cfg Config, strat AckStrategy) {
	var wg sync.WaitGroup
	for i := range drivers {
		d := &drivers[i]
		d.Broker = cfg.Broker
		d.TopicPrefix = cfg.TopicPrefix
		d.Interval = cfg.Interval
		d.Strategy = strat
		wg.Add(1)
		go func(d *SimulatedDriver) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				log.Printf("%s: %v", d.ID, err)
			}
		}(d)
	}
	wg.Wait()
}
