// Package logging provides structured logging for frisquet-connect.
//
// This package wraps the zap logger with a global instance and convenience
// functions. Logging is silent by default so that command output stays
// readable; set --log-level or FRISQUET_LOG_LEVEL to enable it.
//
// # Log Levels
//
//   - Debug: every radio frame with its hex dump, retries, skipped frames
//   - Info: pairing progress, command results, service loop iterations
//   - Warn: undecodable frames, unknown signatures in promiscuous mode
//   - Error: transport failures
//
// # Structured Logging
//
//	logging.Info("Association captured",
//	    zap.String("network_id", "12345678"),
//	    zap.Uint8("association_id", 0x12),
//	)
//
// Frames are logged through LogFrame so that every send or receive carries the
// same fields (direction, header, length, hex).
//
// # Output Format
//
// Logs are written to stderr in console format; stdout is reserved for the
// command output rendered by package ui.
package logging
