// Package radio is the head unit's service layer around a board.
//
// A Service owns one *board.Board, serialises every operation on it and,
// after each change that reached the hardware, does three things:
//
//  1. saves the register-level state and a history entry (settings)
//  2. writes a board_state sample (influxdb)
//  3. calls every StateListener with the new state in both units
//
// The MQTT bridge and the HTTP API are both listeners and both callers.
// Each call names its source ("mqtt", "api" or "startup"), which ends up
// in the history and as a telemetry tag.
//
// Failed bus writes are logged and counted as bus_errors; the chip state
// keeps the requested value and the next successful write re-sends it.
package radio
