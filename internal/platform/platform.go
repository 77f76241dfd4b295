package platform

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/nerrad567/headunit-core/internal/board"
)

// GPIO driver names.
const (
	DriverPeriph  = "periph"
	DriverChardev = "chardev"
)

// DefaultGPIOChip is the character device used by the chardev driver.
const DefaultGPIOChip = "/dev/gpiochip0"

// consumer labels lines opened through the character device.
const consumer = "headunit"

// Config selects how lines are driven.
type Config struct {
	// GPIODriver is DriverPeriph (default) or DriverChardev.
	GPIODriver string

	// GPIOChip is the character device for DriverChardev.
	GPIOChip string
}

// Host implements board.Platform on top of periph and the GPIO
// character device.
type Host struct {
	cfg Config
}

var (
	initOnce sync.Once
	initErr  error
)

// Open validates cfg and initialises periph's host drivers once per
// process.
//
// Parameters:
//   - cfg: GPIO driver selection
//
// Returns:
//   - *Host: Platform ready to open the bus and lines
//   - error: ErrUnknownDriver or a host driver error
func Open(cfg Config) (*Host, error) {
	cfg, err := normalise(cfg)
	if err != nil {
		return nil, err
	}

	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialising host drivers: %w", initErr)
	}
	return &Host{cfg: cfg}, nil
}

// normalise fills defaults and rejects unknown drivers.
func normalise(cfg Config) (Config, error) {
	cfg.GPIODriver = strings.ToLower(strings.TrimSpace(cfg.GPIODriver))
	switch cfg.GPIODriver {
	case "":
		cfg.GPIODriver = DriverPeriph
	case DriverPeriph, DriverChardev:
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.GPIODriver)
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = DefaultGPIOChip
	}
	return cfg, nil
}

// Driver returns the GPIO driver in use.
func (h *Host) Driver() string { return h.cfg.GPIODriver }

// OpenBus opens an I2C bus by periph name ("1", "/dev/i2c-1", "I2C1").
func (h *Host) OpenBus(name string) (board.Bus, error) {
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, err
	}
	return &i2cBus{bus: bc}, nil
}

// OpenLine configures pin as an output at the initial level.
func (h *Host) OpenLine(pin int, n board.Numbering, initial bool) (board.Line, error) {
	bcm, err := ResolveBCM(pin, n)
	if err != nil {
		return nil, err
	}
	if h.cfg.GPIODriver == DriverChardev {
		return openChardevLine(h.cfg.GPIOChip, bcm, initial)
	}
	return openPeriphLine(bcm, initial)
}
