package instrumentation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/academic-calendar/internal/logging"
)

// ToolInvocation captures all information about a tool invocation for audit logging.
type ToolInvocation struct {
	// Tool name
	Tool string

	// SessionID is the MCP client session, empty for stdio clients.
	SessionID string

	// Operation is the database operation the tool performs.
	Operation string

	// Arguments are the raw tool arguments. They are only logged when the
	// audit logger is configured to include them.
	Arguments map[string]string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging, without arguments.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", ti.SessionID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// LogAuditAttrs returns LogAttrs plus the span ID and the tool arguments.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.LogAttrs()

	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if len(ti.Arguments) > 0 {
		keys := make([]string, 0, len(ti.Arguments))
		for k := range ti.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		args := make([]any, 0, len(keys))
		for _, k := range keys {
			args = append(args, slog.String(k, ti.Arguments[k]))
		}
		attrs = append(attrs, slog.Group("arguments", args...))
	}

	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithSession sets the MCP session identifier.
func (ti *ToolInvocation) WithSession(id string) *ToolInvocation {
	ti.SessionID = id
	return ti
}

// WithOperation sets the database operation.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithArguments records the string-valued tool arguments.
func (ti *ToolInvocation) WithArguments(args map[string]any) *ToolInvocation {
	if len(args) == 0 {
		return ti
	}
	ti.Arguments = make(map[string]string, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok {
			ti.Arguments[k] = s
		}
	}
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
// Returns the same ToolInvocation for method chaining.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger           *slog.Logger
	includeArguments bool
	enabled          bool
	level            slog.Level
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
// An empty or unparsable LogLevel logs at info.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if config.LogLevel != "" {
		if parsed, err := logging.ParseLevel(config.LogLevel); err == nil {
			level = parsed
		}
	}
	return &AuditLogger{
		logger:           logger,
		includeArguments: config.IncludeArguments,
		enabled:          config.Enabled,
		level:            level,
	}
}

// LogToolInvocation logs a completed tool invocation as tool_executed or
// tool_failed. Failures are never logged below warn.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includeArguments {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Log(context.Background(), al.level, "tool_executed", args...)
	} else {
		al.logger.Log(context.Background(), max(al.level, slog.LevelWarn), "tool_failed", args...)
	}
}
