package platform

import (
	"fmt"

	"github.com/mkch/gpio"
	"go.uber.org/multierr"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// levelPin is the part of periph's gpio.PinIO a line uses.
type levelPin interface {
	Out(l pgpio.Level) error
	Halt() error
}

// periphLine drives a pin through periph's GPIO registry.
type periphLine struct {
	pin levelPin
}

func openPeriphLine(bcm int, initial bool) (*periphLine, error) {
	name := fmt.Sprintf("GPIO%d", bcm)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	l := &periphLine{pin: p}
	if err := l.Out(initial); err != nil {
		return nil, fmt.Errorf("configuring %s: %w", name, err)
	}
	return l, nil
}

func (l *periphLine) Out(high bool) error {
	return l.pin.Out(pgpio.Level(high))
}

// Release drives the line low and stops any background activity.
func (l *periphLine) Release() error {
	return multierr.Append(l.pin.Out(pgpio.Low), l.pin.Halt())
}

// valueLine is the part of a character-device line this package uses.
type valueLine interface {
	SetValue(value byte) error
	Close() error
}

// chardevLine drives a pin through /dev/gpiochipN.
type chardevLine struct {
	line valueLine
}

func openChardevLine(chipPath string, offset int, initial bool) (*chardevLine, error) {
	chip, err := gpio.OpenChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", chipPath, err)
	}

	// The line keeps its own descriptor once requested.
	line, err := chip.OpenLine(uint32(offset), levelByte(initial), gpio.Output, consumer)
	closeErr := chip.Close()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("opening line %d on %s: %w", offset, chipPath, err), closeErr)
	}
	return &chardevLine{line: line}, nil
}

func (l *chardevLine) Out(high bool) error {
	return l.line.SetValue(levelByte(high))
}

// Release drives the line low and returns it to the kernel.
func (l *chardevLine) Release() error {
	return multierr.Append(l.line.SetValue(0), l.line.Close())
}

func levelByte(high bool) byte {
	if high {
		return 1
	}
	return 0
}
