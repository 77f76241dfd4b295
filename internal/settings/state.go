package settings

import (
	"time"

	"github.com/nerrad567/headunit-core/internal/board"
)

// History sources.
const (
	SourceMQTT    = "mqtt"
	SourceAPI     = "api"
	SourceStartup = "startup"
)

// State is the persisted form of a board: both state bits and the raw
// register values of each chip.
type State struct {
	Power bool             `json:"power"`
	Mute  bool             `json:"mute"`
	DSP   board.DSPState   `json:"dsp"`
	Tuner board.TunerState `json:"tuner"`
}

// HistoryEntry is one row of state_history.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	BoardID   string    `json:"board_id"`
	State     State     `json:"state"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
