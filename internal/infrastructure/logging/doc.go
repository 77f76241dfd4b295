// Package logging provides structured logging for the head unit.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "/var/log/headunit/headunit.log"
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("board").Info("power on", "bus", cfg.Hardware.I2CBus)
//
// Never log secrets, tokens or password hashes.
package logging
