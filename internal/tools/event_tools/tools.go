package event_tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/academic-calendar/internal/instrumentation"
	"github.com/teemow/academic-calendar/internal/logging"
	"github.com/teemow/academic-calendar/internal/server"
)

// Tool names as exposed to MCP clients.
const (
	ToolGetEventsInDuration = "get_events_in_duration"
	ToolGetEventsByType     = "get_events_by_type"
)

// internalErrorPrefix starts every failure message returned to clients.
const internalErrorPrefix = "An internal error occurred: "

// RegisterEventTools registers all event query tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil {
		return fmt.Errorf("mcp server is required")
	}
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	registerQueryTools(s, sc)
	return nil
}

// requiredString returns the named string argument. Absent or non-string
// values are an error; an empty string is passed through.
func requiredString(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

// traceAttrs ties a log line to the tool span carried by ctx.
func traceAttrs(ctx context.Context) []any {
	return logging.Trace(instrumentation.GetTraceID(ctx), instrumentation.GetSpanID(ctx))
}

// internalError logs err and converts it into the tool's error result.
func internalError(ctx context.Context, logger *slog.Logger, err error) *mcp.CallToolResult {
	attrs := append([]any{logging.Err(err)}, traceAttrs(ctx)...)
	logger.ErrorContext(ctx, "tool execution failed", attrs...)
	return mcp.NewToolResultError(internalErrorPrefix + err.Error())
}

// recoverToolPanic turns a panic in a handler into an error result.
// It must be deferred directly by the handler.
func recoverToolPanic(ctx context.Context, logger *slog.Logger, result **mcp.CallToolResult) {
	if r := recover(); r != nil {
		attrs := append([]any{
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		}, traceAttrs(ctx)...)
		logger.ErrorContext(ctx, "tool handler panicked", attrs...)
		*result = mcp.NewToolResultError(fmt.Sprintf("%s%v", internalErrorPrefix, r))
	}
}
