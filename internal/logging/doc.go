// Package logging provides structured logging utilities for the academic-calendar server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction with tint (text) or JSON output
//   - Consistent attribute naming across the codebase
//   - Secret masking for passwords
//   - A Print adapter so the MySQL driver logs through slog
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "in_duration")
//	logger.Info("events query completed",
//	    logging.Rows(n))
//
// Mask secrets before logging:
//
//	logger.Debug("database config",
//	    "password", logging.SanitizeSecret(cfg.Password))
//
// # Security Considerations
//
// Database passwords are never logged. Config values are rendered without
// them and SanitizeSecret only reports the length.
package logging
