package logging

import (
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyDatabase  = "database"
	KeySession   = "session_id"
	KeyEventType = "event_type"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyRows      = "rows"
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithSession returns a logger with the MCP session attribute set.
// An empty id leaves the logger unchanged.
func WithSession(logger *slog.Logger, id string) *slog.Logger {
	if id == "" {
		return logger
	}
	return logger.With(slog.String(KeySession, id))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Database returns a slog attribute for the database name.
func Database(name string) slog.Attr {
	return slog.String(KeyDatabase, name)
}

// Session returns a slog attribute for the MCP session id.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// EventType returns a slog attribute for a requested event type.
func EventType(eventType string) slog.Attr {
	return slog.String(KeyEventType, eventType)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Rows returns a slog attribute for a result row count.
func Rows(n int) slog.Attr {
	return slog.Int(KeyRows, n)
}

// Trace returns the trace and span id attributes, or nil when traceID is
// empty so untraced calls log nothing extra.
func Trace(traceID, spanID string) []any {
	if traceID == "" {
		return nil
	}
	return []any{slog.String(KeyTraceID, traceID), slog.String(KeySpanID, spanID)}
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeSecret returns a masked version of a password or token for logging.
// Only the length is reported.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}
