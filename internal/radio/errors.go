package radio

import "errors"

var (
	// ErrNoBoard is returned by New without a board.
	ErrNoBoard = errors.New("radio: board is required")

	// ErrBoardIDRequired is returned by New without a board ID.
	ErrBoardIDRequired = errors.New("radio: board ID is required")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("radio: service closed")

	// ErrNoStore is returned by History when no settings store is wired.
	ErrNoStore = errors.New("radio: no settings store configured")
)
