// Package influxdb records head unit telemetry in InfluxDB.
//
// Each applied change produces a board_state point (power, mute, DSP
// settings in dB, tuned frequency) tagged with the board and the
// interface that caused it. Failed bus operations produce bus_errors
// points.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteBoardState("main", "mqtt", sample)
//
// Writes are non-blocking and batched by batch_size and flush_interval.
// Connection and health check errors are returned directly; write errors
// reach the SetOnError callback.
package influxdb
