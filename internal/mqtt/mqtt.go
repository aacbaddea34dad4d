// Package mqtt publishes mash process and controller lifecycle telemetry.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/mash-controller/internal/logic"
)

// Topic is the MQTT topic for mash process events.
const Topic = "brewing/mash/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "brewing/mash/controller/system"

// Publisher sends telemetry to the broker. Errors go back to the caller,
// which logs them and carries on.
type Publisher interface {
	Publish(event logic.Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is implemented by publishers that know their link state.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a controller lifecycle message: STARTUP, SHUTDOWN or HEARTBEAT.
// When RawPayload is set it is sent as is, otherwise a small system payload
// is built from Event and Reason.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name for SHUTDOWN
	RawPayload []byte
	Retained   bool
}

// Payload is the body published on Topic.
type Payload struct {
	Mash MashPayload `json:"mash"`
}

type MashPayload struct {
	Timestamp           string  `json:"timestamp"`
	Event               string  `json:"event"`
	Stage               string  `json:"stage"`
	StageIndex          int     `json:"stage_index"`
	Temperature         float64 `json:"temperature"`
	StageElapsedSeconds float64 `json:"stage_elapsed_seconds"`
	TotalElapsedSeconds float64 `json:"total_elapsed_seconds"`
}

// FormatPayload encodes a process event. Temperature is rounded to 0.1 °C.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Mash: MashPayload{
			Timestamp:           timestamp(event.Timestamp),
			Event:               string(event.Type),
			Stage:               event.Stage,
			StageIndex:          event.StageIndex,
			Temperature:         round1(event.Temperature),
			StageElapsedSeconds: event.StageElapsed.Seconds(),
			TotalElapsedSeconds: event.TotalElapsed.Seconds(),
		},
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SystemPayload is the minimal body for system events without a status
// snapshot, such as the last will.
type SystemPayload struct {
	System SystemDetail `json:"system"`
}

type SystemDetail struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemDetail{
		Timestamp: timestamp(event.Timestamp),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// WillPayload is the last-will message the broker publishes if the
// controller drops off without a clean shutdown.
func WillPayload() []byte {
	b, _ := json.Marshal(SystemPayload{System: SystemDetail{Event: "SHUTDOWN", Reason: "CONNECTION_LOST"}})
	return b
}
