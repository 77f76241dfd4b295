// Package settings persists board state in SQLite.
//
// Two tables back it (see the migrations package):
//
//   - board_state: the last applied state per board, read back at start
//   - state_history: every applied change with the interface that caused it
//
// Timestamps are written by the store in UTC RFC 3339 with nanoseconds,
// so text ordering matches time ordering.
package settings
