package board

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Settle delays for the board's power rails.
const (
	// DefaultOpenSettle is the wait after opening the bus.
	DefaultOpenSettle = 500 * time.Millisecond

	// DefaultPowerUpSettle is the wait after EN goes high before the chips
	// are written.
	DefaultPowerUpSettle = 500 * time.Millisecond

	// DefaultPowerDownSettle is the wait after muting before EN goes low.
	DefaultPowerDownSettle = 200 * time.Millisecond

	// DefaultResetDelay is the off time during Reset.
	DefaultResetDelay = 2 * time.Second
)

// Numbering selects how pin numbers are interpreted.
type Numbering int

const (
	// NumberingBoard uses physical header pin numbers.
	NumberingBoard Numbering = iota

	// NumberingBCM uses the SoC's GPIO numbers.
	NumberingBCM
)

// String returns "board" or "bcm".
func (n Numbering) String() string {
	if n == NumberingBCM {
		return "bcm"
	}
	return "board"
}

// ParseNumbering converts "bcm" or "board" to a Numbering.
func ParseNumbering(s string) (Numbering, error) {
	switch strings.ToLower(s) {
	case "bcm":
		return NumberingBCM, nil
	case "board", "physical":
		return NumberingBoard, nil
	default:
		return NumberingBoard, fmt.Errorf("unknown pin numbering %q", s)
	}
}

// Bus is the I2C transport. Writes are fire-and-forget.
type Bus interface {
	// SendByte writes a single byte to the device at addr.
	SendByte(addr uint16, b byte) error

	// SendBlock writes cmd followed by data to the device at addr in one
	// transaction.
	SendBlock(addr uint16, cmd byte, data []byte) error

	// Close releases the bus.
	Close() error
}

// Line is a digital output.
type Line interface {
	// Out drives the line high or low.
	Out(high bool) error

	// Release returns the line to the system.
	Release() error
}

// Platform opens the bus and lines the board is wired to.
type Platform interface {
	// OpenBus opens the I2C bus with the given identifier.
	OpenBus(name string) (Bus, error)

	// OpenLine configures pin as an output at the initial level.
	OpenLine(pin int, numbering Numbering, initial bool) (Line, error)
}

// Chip is a chip controller managed by the board.
type Chip interface {
	Name() string
	Description() string

	// BeforePowerOff runs while the board is still powered, after muting.
	BeforePowerOff() error

	// AfterPowerOn runs after the power-up settle delay and must re-send
	// the chip's full state.
	AfterPowerOn() error
}

// Options configures a Board.
type Options struct {
	// Bus is the I2C bus identifier (e.g. "1" or "/dev/i2c-1"). Required.
	Bus string

	// EnablePin drives the EN input (voltage regulators).
	EnablePin int

	// StandbyPin drives the ST-BY input (amplifier stand-by, active low).
	StandbyPin int

	// Numbering selects how EnablePin and StandbyPin are interpreted.
	Numbering Numbering

	// Settle delays. Zero selects the Default* value.
	OpenSettle      time.Duration
	PowerUpSettle   time.Duration
	PowerDownSettle time.Duration
	ResetDelay      time.Duration

	// Sleep blocks for a settle delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.OpenSettle == 0 {
		o.OpenSettle = DefaultOpenSettle
	}
	if o.PowerUpSettle == 0 {
		o.PowerUpSettle = DefaultPowerUpSettle
	}
	if o.PowerDownSettle == 0 {
		o.PowerDownSettle = DefaultPowerDownSettle
	}
	if o.ResetDelay == 0 {
		o.ResetDelay = DefaultResetDelay
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Board owns the bus, the EN and ST-BY lines, and one controller per chip.
//
// It has two state bits. power gates every bus write; mute drives ST-BY
// (low = stand-by) and can only be cleared while powered.
type Board struct {
	opts    Options
	bus     Bus
	enable  Line
	standby Line

	power  bool
	mute   bool
	closed bool

	dsp   *DSP
	tuner *Tuner
	chips []Chip
}

// New opens the bus and lines, creates the chip controllers and forces the
// board into the off and muted state.
//
// Construction order:
//  1. Open the bus and wait OpenSettle
//  2. Configure EN and ST-BY as low outputs
//  3. Create the DSP and tuner controllers (their initial pushes are dropped)
//  4. SetPower(false) and SetMute(true)
//
// Parameters:
//   - p: Platform providing the bus and lines
//   - opts: Bus identifier, pins and timing
//
// Returns:
//   - *Board: Board in the off and muted state
//   - error: ErrNoBus or ErrNoPlatform, or a wrapped platform error
func New(p Platform, opts Options) (*Board, error) {
	if p == nil {
		return nil, ErrNoPlatform
	}
	if opts.Bus == "" {
		return nil, ErrNoBus
	}
	opts = opts.withDefaults()

	bus, err := p.OpenBus(opts.Bus)
	if err != nil {
		return nil, fmt.Errorf("opening i2c bus %q: %w", opts.Bus, err)
	}
	opts.Sleep(opts.OpenSettle)

	enable, err := p.OpenLine(opts.EnablePin, opts.Numbering, false)
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("%w: opening EN pin %d: %w", ErrLineFailed, opts.EnablePin, err),
			bus.Close(),
		)
	}
	standby, err := p.OpenLine(opts.StandbyPin, opts.Numbering, false)
	if err != nil {
		return nil, multierr.Combine(
			fmt.Errorf("%w: opening ST-BY pin %d: %w", ErrLineFailed, opts.StandbyPin, err),
			enable.Release(),
			bus.Close(),
		)
	}

	b := &Board{
		opts:    opts,
		bus:     bus,
		enable:  enable,
		standby: standby,
		power:   false,
		mute:    true,
	}

	// Initial pushes go nowhere: power is off.
	if b.dsp, err = NewDSP(b); err != nil {
		return nil, multierr.Append(err, b.release())
	}
	if b.tuner, err = NewTuner(b); err != nil {
		return nil, multierr.Append(err, b.release())
	}
	b.chips = []Chip{b.dsp, b.tuner}

	if err := multierr.Append(b.SetPower(false), b.SetMute(true)); err != nil {
		return nil, multierr.Append(err, b.release())
	}
	return b, nil
}

// DSP returns the TDA7313 controller.
func (b *Board) DSP() *DSP { return b.dsp }

// Tuner returns the tuner controller.
func (b *Board) Tuner() *Tuner { return b.tuner }

// Chips returns the chip controllers in power-on order.
func (b *Board) Chips() []Chip {
	out := make([]Chip, len(b.chips))
	copy(out, b.chips)
	return out
}

// Power reports whether the voltage regulators are on.
func (b *Board) Power() bool { return b.power }

// Muted reports whether the amplifier is in stand-by.
func (b *Board) Muted() bool { return b.mute }

// Write is the single write gate for every chip. While the board is off
// the write is dropped and nil is returned. One byte goes out as a plain
// byte write, longer data as a block write with the first byte as command.
func (b *Board) Write(addr uint16, data []byte) error {
	if !b.power || b.closed || len(data) == 0 {
		return nil
	}

	var err error
	if len(data) == 1 {
		err = b.bus.SendByte(addr, data[0])
	} else {
		err = b.bus.SendBlock(addr, data[0], data[1:])
	}
	if err != nil {
		return fmt.Errorf("%w: address 0x%02x: %w", ErrWriteFailed, addr, err)
	}
	return nil
}

// SetPower switches the voltage regulators.
//
// Turning on from off raises EN, waits PowerUpSettle, then calls
// AfterPowerOn on every chip in order. Turning off mutes, calls
// BeforePowerOff on every chip, waits PowerDownSettle and lowers EN.
// Requests matching the current state do nothing.
//
// Parameters:
//   - on: Requested power state
//
// Returns:
//   - error: Line or chip errors; all steps are attempted
func (b *Board) SetPower(on bool) error {
	if b.closed {
		return ErrClosed
	}
	if on {
		if b.power {
			return nil
		}
		return b.powerOn()
	}
	if !b.power {
		return nil
	}
	return b.powerOff()
}

func (b *Board) powerOn() error {
	if err := b.enable.Out(true); err != nil {
		return fmt.Errorf("%w: raising EN: %w", ErrLineFailed, err)
	}
	b.power = true
	b.opts.Sleep(b.opts.PowerUpSettle)

	var errs error
	for _, c := range b.chips {
		if err := c.AfterPowerOn(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s after power on: %w", c.Name(), err))
		}
	}
	return errs
}

func (b *Board) powerOff() error {
	errs := b.SetMute(true)
	for _, c := range b.chips {
		if err := c.BeforePowerOff(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s before power off: %w", c.Name(), err))
		}
	}
	b.opts.Sleep(b.opts.PowerDownSettle)

	b.power = false
	if err := b.enable.Out(false); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: lowering EN: %w", ErrLineFailed, err))
	}
	return errs
}

// Reset powers the board off, waits ResetDelay and powers it on again.
// The power-on leg runs even when powering off failed; both errors are
// returned. The sequence is not atomic; callers serialise access.
func (b *Board) Reset() error {
	if b.closed {
		return ErrClosed
	}
	errs := b.SetPower(false)
	b.opts.Sleep(b.opts.ResetDelay)
	return multierr.Append(errs, b.SetPower(true))
}

// SetMute puts the amplifier in or out of stand-by. Un-muting while the
// board is off is ignored: neither the state nor ST-BY changes.
func (b *Board) SetMute(on bool) error {
	if b.closed {
		return ErrClosed
	}
	if !b.power && !on {
		return nil
	}
	b.mute = on
	if err := b.standby.Out(!on); err != nil {
		return fmt.Errorf("%w: driving ST-BY: %w", ErrLineFailed, err)
	}
	return nil
}

// Close powers the board off and releases the lines and the bus.
// Calling Close more than once is safe.
func (b *Board) Close() error {
	if b.closed {
		return nil
	}
	err := b.SetPower(false)
	b.closed = true
	return multierr.Append(err, b.release())
}

// release returns the lines and the bus to the platform.
func (b *Board) release() error {
	return multierr.Combine(
		b.enable.Release(),
		b.standby.Release(),
		b.bus.Close(),
	)
}
