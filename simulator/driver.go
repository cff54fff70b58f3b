package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// SimulatedDriver connects to MQTT, streams GPS pings and confirms
// assignment orders.
type SimulatedDriver struct {
	ID          string
	Broker      string
	TopicPrefix string
	Interval    time.Duration
	Strategy    AckStrategy
	Route       *Route

	client paho.Client
	ackCh  chan string
}

// Run connects to the broker and drives until ctx is done.
func (d *SimulatedDriver) Run(ctx context.Context) error {
	cli, err := newMQTTClient(d.Broker, "sim-"+d.ID)
	if err != nil {
		return err
	}
	d.client = cli
	d.ackCh = make(chan string, 50)
	go d.ackWorker(ctx)

	topic := fmt.Sprintf("%s/drivers/%s/orders", d.TopicPrefix, d.ID)
	if token := cli.Subscribe(topic, 1, d.onOrder); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			close(d.ackCh)
			cli.Disconnect(250)
			return nil
		case now := <-ticker.C:
			d.publishPing(now, now.Sub(last))
			last = now
		}
	}
}

func (d *SimulatedDriver) onOrder(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string  `json:"message_id"`
		PickupLat float64 `json:"pickup_lat"`
		PickupLng float64 `json:"pickup_lng"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode order: %v", d.ID, err)
		return
	}
	if m.PickupLat != 0 || m.PickupLng != 0 {
		d.Route.SetTarget(m.PickupLat, m.PickupLng)
	}
	select {
	case d.ackCh <- m.MessageID:
	default:
		log.Printf("%s: ack queue full, dropping order %s", d.ID, m.MessageID)
	}
}

func (d *SimulatedDriver) ackWorker(ctx context.Context) {
	for {
		select {
		case msgID, ok := <-d.ackCh:
			if !ok {
				return
			}
			d.Strategy.Ack(ctx, d.client, ackTopicFor(d.TopicPrefix), d.ID, msgID)
		case <-ctx.Done():
			return
		}
	}
}

func (d *SimulatedDriver) publishPing(now time.Time, dt time.Duration) {
	lat, lng, heading, speed := d.Route.Advance(dt)
	payload, err := json.Marshal(struct {
		DriverID  string    `json:"driver_id"`
		Lat       float64   `json:"lat"`
		Lng       float64   `json:"lng"`
		Heading   float64   `json:"heading"`
		Speed     float64   `json:"speed"`
		Timestamp time.Time `json:"timestamp"`
	}{
		DriverID:  d.ID,
		Lat:       lat,
		Lng:       lng,
		Heading:   heading,
		Speed:     speed,
		Timestamp: now.UTC(),
	})
	if err != nil {
		log.Printf("%s: marshal ping: %v", d.ID, err)
		return
	}
	topic := fmt.Sprintf("%s/drivers/%s/location", d.TopicPrefix, d.ID)
	token := d.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("%s: ping publish timeout", d.ID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("%s: publish ping: %v", d.ID, err)
	}
}
