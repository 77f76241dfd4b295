package board

import "fmt"

// Writer is the board's write gate as seen by a chip controller.
//
// A controller holds the Writer without owning it; the board outlives
// every controller it creates.
type Writer interface {
	// Write sends data to the chip at addr. It is a no-op while the board
	// is powered off.
	Write(addr uint16, data []byte) error
}

// Balance is the attenuation of each channel in the requested unit.
type Balance struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// BalanceUpdate selects which channels a SetBalance call changes.
// Nil fields are left untouched.
type BalanceUpdate struct {
	Left  *float64
	Right *float64
}

// InputSettings is the selected input with its loudness and gain.
type InputSettings struct {
	Input    int     `json:"input"`
	Loudness bool    `json:"loudness"`
	Gain     float64 `json:"gain"`
}

// InputUpdate selects which input settings a SetInput call changes.
// Nil fields are left untouched.
type InputUpdate struct {
	Input    *int
	Loudness *bool
	Gain     *float64
}

// DSP controls a TDA7313 audio processor.
type DSP struct {
	board Writer
	state DSPState
}

// NewDSP creates a TDA7313 controller with default settings and pushes
// them to the chip. The push is dropped while the board is off.
//
// Parameters:
//   - board: Write gate of the board the chip sits on
//
// Returns:
//   - *DSP: Controller with default state
//   - error: ErrNoBoard if board is nil, or the initial write error
func NewDSP(board Writer) (*DSP, error) {
	if board == nil {
		return nil, ErrNoBoard
	}
	d := &DSP{
		board: board,
		state: DefaultDSPState(),
	}
	if err := d.push(); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the chip model.
func (d *DSP) Name() string { return "TDA7313" }

// Description returns a human-readable chip description.
func (d *DSP) Description() string { return "TDA7313 simple DSP" }

// State returns a copy of the register-level state.
func (d *DSP) State() DSPState { return d.state }

// BeforePowerOff is a no-op; the TDA7313 needs no quiescing.
func (d *DSP) BeforePowerOff() error { return nil }

// AfterPowerOn re-sends the full register image.
func (d *DSP) AfterPowerOn() error { return d.push() }

// Volume returns the master volume in unit u.
func (d *DSP) Volume(u Unit) float64 {
	return VolumeScale.View(d.state.Volume, u)
}

// SetVolume sets the master volume.
//
// Parameters:
//   - v: Volume as a level (0..63) or in dB (-78.75..0); clamped
//   - u: Unit of v and of the returned value
//
// Returns:
//   - float64: Effective volume in unit u
//   - error: Write error from the bus
func (d *DSP) SetVolume(v float64, u Unit) (float64, error) {
	d.state.Volume = VolumeScale.Encode(v, u)
	return d.Volume(u), d.push()
}

// Balance returns the attenuation of both channels in unit u.
func (d *DSP) Balance(u Unit) Balance {
	return Balance{
		Left:  BalanceScale.View(d.state.BalanceLeft, u),
		Right: BalanceScale.View(d.state.BalanceRight, u),
	}
}

// SetBalance changes one or both channel attenuators. An update with no
// fields set leaves the chip untouched.
//
// Parameters:
//   - upd: Channels to change, as levels (0..31) or dB (-38.75..0); clamped
//   - u: Unit of upd and of the returned value
//
// Returns:
//   - Balance: Effective balance in unit u
//   - error: Write error from the bus
func (d *DSP) SetBalance(upd BalanceUpdate, u Unit) (Balance, error) {
	if upd.Left == nil && upd.Right == nil {
		return d.Balance(u), nil
	}
	if upd.Left != nil {
		d.state.BalanceLeft = BalanceScale.Encode(*upd.Left, u)
	}
	if upd.Right != nil {
		d.state.BalanceRight = BalanceScale.Encode(*upd.Right, u)
	}
	return d.Balance(u), d.push()
}

// Input returns the selected input, loudness and gain (gain in unit u).
func (d *DSP) Input(u Unit) InputSettings {
	return InputSettings{
		Input:    d.state.Input,
		Loudness: d.state.Loudness,
		Gain:     GainScale.View(d.state.Gain, u),
	}
}

// SetInput switches input and/or changes loudness and gain. An update with
// no fields set leaves the chip untouched.
//
// Parameters:
//   - upd: Settings to change; input clamps to 0..2, gain to 0..3 or 0..11.25 dB
//   - u: Unit of the gain in upd and in the returned value
//
// Returns:
//   - InputSettings: Effective settings
//   - error: Write error from the bus
func (d *DSP) SetInput(upd InputUpdate, u Unit) (InputSettings, error) {
	if upd.Input == nil && upd.Loudness == nil && upd.Gain == nil {
		return d.Input(u), nil
	}
	if upd.Input != nil {
		d.state.Input = encodeInput(*upd.Input)
	}
	if upd.Loudness != nil {
		d.state.Loudness = *upd.Loudness
	}
	if upd.Gain != nil {
		d.state.Gain = GainScale.Encode(*upd.Gain, u)
	}
	return d.Input(u), d.push()
}

// Bass returns the bass level in unit u.
func (d *DSP) Bass(u Unit) float64 {
	return ToneScale.View(d.state.Bass, u)
}

// SetBass sets the bass level (-7..7 or -14..14 dB; clamped).
func (d *DSP) SetBass(v float64, u Unit) (float64, error) {
	d.state.Bass = ToneScale.Encode(v, u)
	return d.Bass(u), d.push()
}

// Treble returns the treble level in unit u.
func (d *DSP) Treble(u Unit) float64 {
	return ToneScale.View(d.state.Treble, u)
}

// SetTreble sets the treble level (-7..7 or -14..14 dB; clamped).
func (d *DSP) SetTreble(v float64, u Unit) (float64, error) {
	d.state.Treble = ToneScale.Encode(v, u)
	return d.Treble(u), d.push()
}

// Restore replaces the whole state, clamping every field, and pushes it.
func (d *DSP) Restore(s DSPState) error {
	d.state = DSPState{
		Volume:       clampInt(s.Volume, VolumeScale.Min, VolumeScale.Max),
		BalanceLeft:  clampInt(s.BalanceLeft, BalanceScale.Min, BalanceScale.Max),
		BalanceRight: clampInt(s.BalanceRight, BalanceScale.Min, BalanceScale.Max),
		Input:        encodeInput(s.Input),
		Loudness:     s.Loudness,
		Gain:         clampInt(s.Gain, GainScale.Min, GainScale.Max),
		Bass:         clampInt(s.Bass, ToneScale.Min, ToneScale.Max),
		Treble:       clampInt(s.Treble, ToneScale.Min, ToneScale.Max),
	}
	return d.push()
}

// push sends the full 8-byte image.
// TODO: diff against the last image and send only changed sub-addresses.
func (d *DSP) push() error {
	img := PackDSP(d.state)
	if err := d.board.Write(DSPAddress, img[:]); err != nil {
		return fmt.Errorf("tda7313: %w", err)
	}
	return nil
}
