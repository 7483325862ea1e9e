package ws

import (
	"encoding/json"
	"fmt"

	"github.com/oshokin/slope-guard/internal/bus"
)

// Inbound message types on the device channel.
const (
	// TypeRegister announces the device role, zones and worker id.
	TypeRegister = "register"
	// TypeCreateAlert asks the coordinator to raise an alert.
	TypeCreateAlert = "createAlert"
	// TypeCreateScenario asks the coordinator to expand a scenario.
	TypeCreateScenario = "createScenario"
	// TypeAck acknowledges a previously delivered alert.
	TypeAck = "ack"
)

// Envelope frames every message on the device channel in both directions.
type Envelope struct {
	// Type names the message, one of the Type* constants inbound or the
	// bus.Event* constants outbound.
	Type string `json:"type"`
	// Data is the message payload.
	Data json.RawMessage `json:"data,omitempty"`
}

// RegisterRequest is the payload of a register message.
type RegisterRequest struct {
	Role     string   `json:"role"`
	Zones    []string `json:"zones"`
	WorkerID string   `json:"workerId,omitempty"`
}

// CreateAlertRequest is the payload of a createAlert message.
type CreateAlertRequest struct {
	Zone     string `json:"zone"`
	Severity int    `json:"severity,omitempty"`
}

// CreateScenarioRequest is the payload of a createScenario message.
type CreateScenarioRequest struct {
	EpicenterZone string  `json:"epicenterZone"`
	Magnitude     float64 `json:"magnitude"`
}

// AckRequest is the payload of an ack message.
type AckRequest struct {
	AlertID  string `json:"alertId"`
	WorkerID string `json:"workerId"`
}

// encodeEvent frames an outbound bus event for the wire.
func encodeEvent(event bus.Event) ([]byte, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	framed, err := json.Marshal(Envelope{Type: event.Type, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return framed, nil
}
