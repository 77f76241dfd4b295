package board

import "errors"

// Domain errors for the board package.
var (
	// ErrNoBus is returned when a board is constructed without a bus
	// identifier. Bus auto-detection is not supported.
	ErrNoBus = errors.New("board: i2c bus identifier is required")

	// ErrNoPlatform is returned when a board is constructed without a
	// platform to open the bus and lines on.
	ErrNoPlatform = errors.New("board: platform is required")

	// ErrNoBoard is returned when a chip controller is constructed without
	// the board it sits on.
	ErrNoBoard = errors.New("board: chip controller requires a board")

	// ErrUnsupportedStep is returned for any attempt to change the tuner's
	// synthesizer step. The step is fixed at 50 kHz.
	ErrUnsupportedStep = errors.New("board: changing the tuning step is not supported")

	// ErrWriteFailed wraps transport errors from the I2C bus.
	ErrWriteFailed = errors.New("board: i2c write failed")

	// ErrLineFailed wraps errors from the EN or ST-BY digital lines.
	ErrLineFailed = errors.New("board: digital line operation failed")

	// ErrClosed is returned by operations on a board after Close.
	ErrClosed = errors.New("board: closed")
)
