package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/justingeeslin/opensensecam/internal/gps"
)

// Telemetry publishes accepted fixes and capture events as JSON over MQTT,
// so an operator can watch the worker without touching the device. Image
// bytes never travel over the wire.
type Telemetry struct {
	client       mqtt.Client
	topicFix     string
	topicCapture string
}

func NewTelemetry(broker, clientID, topicFix, topicCapture string) (*Telemetry, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)

	return &Telemetry{
		client:       client,
		topicFix:     topicFix,
		topicCapture: topicCapture,
	}, nil
}

// PublishFix publishes one accepted fix, retained so late subscribers see
// the current position immediately.
func (t *Telemetry) PublishFix(f gps.Fix) {
	payload, err := json.Marshal(f)
	if err != nil {
		log.Printf("telemetry: fix marshal error: %v", err)
		return
	}
	if token := t.client.Publish(t.topicFix, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("telemetry: fix publish error: %v", token.Error())
	}
}

// PublishCapture publishes one capture event.
func (t *Telemetry) PublishCapture(ev CaptureEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry: capture marshal error: %v", err)
		return
	}
	if token := t.client.Publish(t.topicCapture, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("telemetry: capture publish error: %v", token.Error())
	}
}

func (t *Telemetry) Close() {
	t.client.Disconnect(250)
}
