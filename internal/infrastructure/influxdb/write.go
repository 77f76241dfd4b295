package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementBoardState = "board_state"
	MeasurementBusError   = "bus_errors"
)

// BoardSample is one observation of a board, in user-facing units.
type BoardSample struct {
	Power bool
	Mute  bool

	VolumeDB       float64
	BalanceLeftDB  float64
	BalanceRightDB float64
	Input          int
	Loudness       bool
	GainDB         float64
	BassDB         float64
	TrebleDB       float64

	FrequencyMHz float64
	Stereo       bool
}

// BoardStatePoint builds the board_state point. The tags are the board
// and the interface that caused the change.
func BoardStatePoint(boardID, source string, s BoardSample, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementBoardState,
		map[string]string{
			"board_id": boardID,
			"source":   source,
		},
		map[string]interface{}{
			"power":            s.Power,
			"mute":             s.Mute,
			"volume_db":        s.VolumeDB,
			"balance_left_db":  s.BalanceLeftDB,
			"balance_right_db": s.BalanceRightDB,
			"input":            s.Input,
			"loudness":         s.Loudness,
			"gain_db":          s.GainDB,
			"bass_db":          s.BassDB,
			"treble_db":        s.TrebleDB,
			"frequency_mhz":    s.FrequencyMHz,
			"stereo":           s.Stereo,
		},
		ts,
	)
}

// BusErrorPoint builds a bus_errors point counting one failed operation.
func BusErrorPoint(boardID, operation string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementBusError,
		map[string]string{
			"board_id":  boardID,
			"operation": operation,
		},
		map[string]interface{}{
			"count": 1,
		},
		ts,
	)
}

// WriteBoardState records a board observation.
//
// Example:
//
//	client.WriteBoardState("main", "api", influxdb.BoardSample{Power: true, VolumeDB: -20})
func (c *Client) WriteBoardState(boardID, source string, s BoardSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(BoardStatePoint(boardID, source, s, time.Now()))
}

// WriteBusError records a failed bus or line operation.
func (c *Client) WriteBusError(boardID, operation string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(BusErrorPoint(boardID, operation, time.Now()))
}
