package radio

import (
	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/headunit-core/internal/settings"
)

// ChipInfo names one chip controller on the board.
type ChipInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Snapshot is the complete user-facing state of a board with every DSP
// value expressed in Unit.
type Snapshot struct {
	BoardID     string              `json:"board_id"`
	Unit        string              `json:"unit"`
	Power       bool                `json:"power"`
	Mute        bool                `json:"mute"`
	Volume      float64             `json:"volume"`
	Balance     board.Balance       `json:"balance"`
	Input       board.InputSettings `json:"input"`
	Bass        float64             `json:"bass"`
	Treble      float64             `json:"treble"`
	Tuning      board.Tuning        `json:"tuning"`
	Stereo      bool                `json:"stereo"`
	FrontendI2C bool                `json:"frontend_i2c"`
	Chips       []ChipInfo          `json:"chips"`
}

// Change is delivered to listeners after a state change was applied.
type Change struct {
	// Source is the interface that caused the change (settings.Source*).
	Source string

	// Level and Decibel are the same state in both units.
	Level   Snapshot
	Decibel Snapshot

	seq uint64
}

// StateListener is notified after every applied change. Listeners run on
// the caller's goroutine, after the service lock is released.
type StateListener func(Change)

// snapshotLocked builds a Snapshot. The caller holds s.mu.
func (s *Service) snapshotLocked(u board.Unit) Snapshot {
	b := s.board
	dsp := b.DSP()
	tuner := b.Tuner()

	chips := b.Chips()
	info := make([]ChipInfo, 0, len(chips))
	for _, c := range chips {
		info = append(info, ChipInfo{Name: c.Name(), Description: c.Description()})
	}

	return Snapshot{
		BoardID:     s.boardID,
		Unit:        u.String(),
		Power:       b.Power(),
		Mute:        b.Muted(),
		Volume:      dsp.Volume(u),
		Balance:     dsp.Balance(u),
		Input:       dsp.Input(u),
		Bass:        dsp.Bass(u),
		Treble:      dsp.Treble(u),
		Tuning:      tuner.Tuning(),
		Stereo:      tuner.State().Stereo,
		FrontendI2C: tuner.FrontendI2CEnabled(),
		Chips:       info,
	}
}

// persistedLocked returns the register-level state for the settings store.
func (s *Service) persistedLocked() settings.State {
	return settings.State{
		Power: s.board.Power(),
		Mute:  s.board.Muted(),
		DSP:   s.board.DSP().State(),
		Tuner: s.board.Tuner().State(),
	}
}

// sample converts a decibel snapshot into a telemetry sample.
func sample(db Snapshot) influxdb.BoardSample {
	return influxdb.BoardSample{
		Power:          db.Power,
		Mute:           db.Mute,
		VolumeDB:       db.Volume,
		BalanceLeftDB:  db.Balance.Left,
		BalanceRightDB: db.Balance.Right,
		Input:          db.Input.Input,
		Loudness:       db.Input.Loudness,
		GainDB:         db.Input.Gain,
		BassDB:         db.Bass,
		TrebleDB:       db.Treble,
		FrequencyMHz:   db.Tuning.Freq,
		Stereo:         db.Stereo,
	}
}
