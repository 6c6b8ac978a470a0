package event_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/academic-calendar/internal/events"
	"github.com/teemow/academic-calendar/internal/instrumentation"
	"github.com/teemow/academic-calendar/internal/logging"
	"github.com/teemow/academic-calendar/internal/server"
	"github.com/teemow/academic-calendar/internal/tools/common"
)

// resultFormat tells agents how to read the rendered rows.
var resultFormat = fmt.Sprintf("Returns a JSON array with one object per event, keyed by column name; every value is a string and NULL columns are the string %q.", events.NullText)

func registerQueryTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	inDurationTool := mcp.NewTool(ToolGetEventsInDuration,
		mcp.WithDescription("Retrieves all events within a specific date range from the academic calendar database, ordered by date and start time. "+resultFormat),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("The start date of the period, in 'YYYY-MM-DD' format."),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("The end date of the period, in 'YYYY-MM-DD' format."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(inDurationTool, common.InstrumentedToolHandlerWithOperation(
		ToolGetEventsInDuration, instrumentation.OperationInDuration, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEventsInDuration(ctx, request, sc)
		}))

	byTypeTool := mcp.NewTool(ToolGetEventsByType,
		mcp.WithDescription("Retrieves all events of a specific type from the academic calendar database. The type is matched case-insensitively. "+resultFormat),
		mcp.WithString("event_type",
			mcp.Required(),
			mcp.Description("The type of the event to retrieve (e.g., 'exam', 'lecture')."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(byTypeTool, common.InstrumentedToolHandlerWithOperation(
		ToolGetEventsByType, instrumentation.OperationByType, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEventsByType(ctx, request, sc)
		}))
}

func handleGetEventsInDuration(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (result *mcp.CallToolResult, _ error) {
	logger := logging.WithTool(sc.Logger(), ToolGetEventsInDuration)
	defer recoverToolPanic(ctx, logger, &result)

	args := request.GetArguments()
	startDate, err := requiredString(args, "start_date")
	if err != nil {
		return internalError(ctx, logger, err), nil
	}
	endDate, err := requiredString(args, "end_date")
	if err != nil {
		return internalError(ctx, logger, err), nil
	}

	logger.Info("executing get_events_in_duration",
		"start_date", startDate,
		"end_date", endDate)

	rows, err := sc.Events().InDuration(ctx, startDate, endDate)
	if err != nil {
		return internalError(ctx, logger, err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events found between %s and %s.", startDate, endDate)), nil
	}

	return renderResult(ctx, logger, rows)
}

func handleGetEventsByType(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (result *mcp.CallToolResult, _ error) {
	logger := logging.WithTool(sc.Logger(), ToolGetEventsByType)
	defer recoverToolPanic(ctx, logger, &result)

	eventType, err := requiredString(request.GetArguments(), "event_type")
	if err != nil {
		return internalError(ctx, logger, err), nil
	}

	logger.Info("executing get_events_by_type", logging.EventType(eventType))

	rows, err := sc.Events().ByType(ctx, eventType)
	if err != nil {
		return internalError(ctx, logger, err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events found of type '%s'.", eventType)), nil
	}

	return renderResult(ctx, logger, rows)
}

func renderResult(ctx context.Context, logger *slog.Logger, rows []events.Event) (*mcp.CallToolResult, error) {
	text, err := events.Render(rows)
	if err != nil {
		return internalError(ctx, logger, err), nil
	}
	instrumentation.AddSpanEvent(trace.SpanFromContext(ctx), "events_rendered",
		attribute.Int(instrumentation.SpanAttrRowCount, len(rows)))
	return mcp.NewToolResultText(text), nil
}
