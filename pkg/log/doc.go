// Package log provides structured protocol logging for the HAP bridge.
//
// This package defines the Logger interface and Event types for capturing
// what happens to the accessory database: characteristic reads and writes
// from HomeKit, value updates from devices, accessory lifecycle changes and
// errors. It is separate from operational logging (slog). The event trace is
// machine-readable and meant for debugging and replay analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/hap/bridge.hlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event carries a Source (HomeKit, device or bridge) and a Category:
//   - Read, Write and Change carry a CharacteristicEvent
//   - State carries a StateChangeEvent (accessory added or removed)
//   - Error carries an ErrorEventData
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .hlog extension.
// Reader iterates over a file and applies a Filter.
package log
