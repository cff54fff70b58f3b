package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// AckStrategy defines how a driver acknowledges assignment orders.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, ackTopic, driverID, messageID string)
}

// AutoAck confirms every order after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, ackTopic, driverID, messageID string) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, ackTopic, driverID, messageID)
}

// RandomAck drops confirmations with the configured probability and waits
// for the specified delay before sending.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, ackTopic, driverID, messageID string) {
	if r.DropRate > 0 && rng.Float64() < r.DropRate {
		return
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, ackTopic, driverID, messageID)
}

func publishAck(cli paho.Client, ackTopic, driverID, messageID string) {
	payload, err := json.Marshal(struct {
		MessageID string `json:"message_id"`
		DriverID  string `json:"driver_id"`
		Status    string `json:"status"`
	}{MessageID: messageID, DriverID: driverID, Status: "confirmed"})
	if err != nil {
		log.Printf("marshal ack: %v", err)
		return
	}
	token := cli.Publish(ackTopic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("ack publish timeout for %s", driverID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish ack error for %s: %v", driverID, err)
	}
}

func ackTopicFor(prefix string) string {
	return fmt.Sprintf("%s/dispatch/ack", prefix)
}
