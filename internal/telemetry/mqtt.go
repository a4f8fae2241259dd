// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_telemetry/internal/gps"
)

// publishWait bounds how long a tick may wait on the broker.
const publishWait = 50 * time.Millisecond

// MQTTPublisher publishes fixes as retained JSON whenever they change.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	wait   time.Duration

	last gps.Fix
	sent bool
}

// ConnectMQTT connects to the broker and returns a publisher for topic.
func ConnectMQTT(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s as %s", broker, clientID)

	return newMQTTPublisher(client, topic), nil
}

func newMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, wait: publishWait}
}

// Publish sends fix unless it equals the last one delivered.
func (p *MQTTPublisher) Publish(fix gps.Fix) error {
	if p.sent && fix == p.last {
		return nil
	}

	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("telemetry: marshal fix: %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(p.wait) {
		return fmt.Errorf("telemetry: publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish to %s: %w", p.topic, err)
	}

	p.last, p.sent = fix, true
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
