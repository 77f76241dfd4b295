package settings

import "errors"

var (
	// ErrNotFound is returned when no state has been saved for a board.
	ErrNotFound = errors.New("settings: not found")

	// ErrBoardIDRequired is returned when a call has an empty board ID.
	ErrBoardIDRequired = errors.New("settings: board id is required")
)
