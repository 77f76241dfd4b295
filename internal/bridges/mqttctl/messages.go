package mqttctl

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/headunit-core/internal/radio"
)

// CommandMessage is a command for one board.
// Topic: headunit/command/{board_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. Generated when
	// empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Command is one of power, mute, reset, volume, balance, input, bass,
	// treble, tune, step or state.
	Command string `json:"command"`

	// Parameters holds command-specific values, for example
	//   {"on": true} for power and mute
	//   {"value": -20, "unit": "db"} for volume, bass and treble
	//   {"left": 0, "right": -3.75, "unit": "db"} for balance
	//   {"input": 1, "loudness": false, "gain": 2} for input
	//   {"frequency": 101.1} for tune
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AckStatus is the outcome of a command.
type AckStatus string

const (
	AckAccepted AckStatus = "accepted"
	AckFailed   AckStatus = "failed"
)

// AckMessage acknowledges a command.
// Topic: headunit/ack/{board_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	BoardID   string    `json:"board_id"`
	Command   string    `json:"command"`
	Status    AckStatus `json:"status"`

	// Result is the effective value after an accepted command.
	Result any `json:"result,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError describes a failed command.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for failed commands.
const (
	ErrCodeInvalidCommand    = "invalid_command"
	ErrCodeInvalidParameters = "invalid_parameters"
	ErrCodeUnsupported       = "unsupported"
	ErrCodeBusError          = "bus_error"
	ErrCodeUnavailable       = "unavailable"
	ErrCodeInternal          = "internal_error"
)

// StateMessage is the full board state.
// Topic: headunit/state/{board_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	BoardID   string    `json:"board_id"`
	Timestamp time.Time `json:"timestamp"`

	// Source is the interface behind the latest change.
	Source string `json:"source,omitempty"`

	Level   radio.Snapshot `json:"level"`
	Decibel radio.Snapshot `json:"db"`
}

// HealthStatus is the bridge's operational status.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline is only ever published by the broker as the LWT.
	HealthOffline HealthStatus = "offline"

	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's status.
// Topic: headunit/health/{board_id}
// QoS: 1, Retained: Yes
type HealthMessage struct {
	BoardID       string            `json:"board_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        HealthStatus      `json:"status"`
	Version       string            `json:"version,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	BoardPowered  bool              `json:"board_powered"`
	Statistics    *BridgeStatistics `json:"statistics,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// BridgeStatistics counts commands since start.
type BridgeStatistics struct {
	CommandsReceived uint64 `json:"commands_received"`
	CommandsFailed   uint64 `json:"commands_failed"`
}

// NewAckMessage builds an accepted acknowledgement.
func NewAckMessage(boardID string, cmd CommandMessage, result any) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		BoardID:   boardID,
		Command:   cmd.Command,
		Status:    AckAccepted,
		Result:    result,
	}
}

// NewAckError builds a failed acknowledgement.
func NewAckError(boardID string, cmd CommandMessage, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		BoardID:   boardID,
		Command:   cmd.Command,
		Status:    AckFailed,
		Error:     &AckError{Code: code, Message: message},
	}
}

// NewStateMessage wraps a radio change.
func NewStateMessage(c radio.Change) StateMessage {
	return StateMessage{
		BoardID:   c.Level.BoardID,
		Timestamp: time.Now().UTC(),
		Source:    c.Source,
		Level:     c.Level,
		Decibel:   c.Decibel,
	}
}

// NewLWTMessage is the health message the broker publishes when the
// connection drops unexpectedly.
func NewLWTMessage(boardID string) HealthMessage {
	return HealthMessage{
		BoardID:   boardID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// LWTPayload encodes NewLWTMessage for mqtt.WithWill.
func LWTPayload(boardID string) []byte {
	data, _ := json.Marshal(NewLWTMessage(boardID)) //nolint:errcheck // Fixed struct always marshals
	return data
}
