package board

import (
	"fmt"
	"math"
)

// Tuning range in MHz.
const (
	MinFrequency     = 30.4
	MaxFrequency     = 108.1
	DefaultFrequency = 95.0
)

// Tuning is the tuned frequency and the synthesizer step.
type Tuning struct {
	Freq    float64 `json:"freq"`
	StepKHz int     `json:"step_khz"`
}

// Tuner controls the TEA6825 backend and the TEA6810 frontend behind it.
//
// The frontend is only reachable while the backend routes the bus to it,
// so every frontend write is bracketed by backend writes that enable and
// then disable that routing.
type Tuner struct {
	board Writer
	state TunerState
}

// NewTuner creates a tuner controller with default settings and pushes the
// full backend and frontend images. The pushes are dropped while the board
// is off.
//
// Parameters:
//   - board: Write gate of the board the chips sit on
//
// Returns:
//   - *Tuner: Controller with default state
//   - error: ErrNoBoard if board is nil, or the initial write error
func NewTuner(board Writer) (*Tuner, error) {
	if board == nil {
		return nil, ErrNoBoard
	}
	t := &Tuner{
		board: board,
		state: DefaultTunerState(),
	}
	if err := t.pushAll(); err != nil {
		return nil, err
	}
	return t, nil
}

// Name returns the chip models.
func (t *Tuner) Name() string { return "BIG" }

// Description returns a human-readable description of the tuner.
func (t *Tuner) Description() string {
	return "Bigger tuner with TEA6825 backend and TEA6810 frontend chips"
}

// State returns a copy of the tuner state.
func (t *Tuner) State() TunerState { return t.state }

// FrontendI2CEnabled reports whether the backend currently routes the bus
// to the frontend. Outside a frontend write this is always false.
func (t *Tuner) FrontendI2CEnabled() bool { return t.state.FrontendI2C }

// BeforePowerOff is a no-op.
func (t *Tuner) BeforePowerOff() error { return nil }

// AfterPowerOn re-sends the full backend and frontend images.
func (t *Tuner) AfterPowerOn() error { return t.pushAll() }

// Tuning returns the current frequency and step.
func (t *Tuner) Tuning() Tuning {
	return Tuning{Freq: t.state.Freq, StepKHz: t.state.StepKHz}
}

// Tune sets the frequency in MHz, clamped to 30.4..108.1 and quantised to
// 100 kHz, and sends the frontend divider word.
//
// Parameters:
//   - freq: Frequency in MHz
//
// Returns:
//   - Tuning: Effective frequency and step
//   - error: Write error from the bus
func (t *Tuner) Tune(freq float64) (Tuning, error) {
	t.state.Freq = quantiseFrequency(freq)
	return t.Tuning(), t.pushFrontend(FrontendShort)
}

// SetStep always fails with ErrUnsupportedStep. The synthesizer step is
// fixed at 50 kHz and the state is never touched.
func (t *Tuner) SetStep(kHz int) (Tuning, error) {
	return t.Tuning(), fmt.Errorf("%w: requested %d kHz", ErrUnsupportedStep, kHz)
}

// Restore applies a saved frequency. Backend flags and the step are not
// restorable and keep their defaults.
func (t *Tuner) Restore(s TunerState) error {
	t.state.Freq = quantiseFrequency(s.Freq)
	return t.pushFrontend(FrontendShort)
}

// pushAll sends the full backend image followed by the full frontend image.
func (t *Tuner) pushAll() error {
	if err := t.pushBackend(BackendFull); err != nil {
		return err
	}
	return t.pushFrontend(FrontendFull)
}

func (t *Tuner) pushBackend(n int) error {
	if err := t.board.Write(TunerBackendAddress, PackBackend(t.state, n)); err != nil {
		return fmt.Errorf("tea6825: %w", err)
	}
	return nil
}

// pushFrontend writes n frontend bytes inside the routing bracket. The
// closing backend write is attempted even when the frontend write fails.
func (t *Tuner) pushFrontend(n int) error {
	t.state.FrontendI2C = true
	if err := t.pushBackend(BackendShort); err != nil {
		t.state.FrontendI2C = false
		return err
	}

	werr := t.board.Write(TunerFrontendAddress, PackFrontend(t.state, n))

	t.state.FrontendI2C = false
	if err := t.pushBackend(BackendShort); err != nil && werr == nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("tea6810: %w", werr)
	}
	return nil
}

// quantiseFrequency clamps freq to the tuning range and rounds it to the
// 100 kHz grid the frontend divider works on.
func quantiseFrequency(freq float64) float64 {
	freq = clampFloat(freq, MinFrequency, MaxFrequency)
	return math.Round(freq*10) / 10
}
