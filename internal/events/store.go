package events

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/academic-calendar/internal/database"
	"github.com/teemow/academic-calendar/internal/instrumentation"
	"github.com/teemow/academic-calendar/internal/logging"
)

// SQL statements run against the events table. User input is only ever
// passed as bound parameters.
const (
	queryInDuration = "SELECT * FROM events WHERE event_date BETWEEN ? AND ? ORDER BY event_date, start_time"
	queryByType     = "SELECT * FROM events WHERE LOWER(event_type) = LOWER(?)"
)

// Store runs the event queries. Each query opens its own session through
// the connector and releases it before returning.
type Store struct {
	connector database.Connector
	logger    *slog.Logger
}

// NewStore returns a Store that obtains sessions from connector.
func NewStore(connector database.Connector, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{connector: connector, logger: logger}
}

// InDuration returns the events whose event_date lies within
// [startDate, endDate], ordered by date then start time. Dates are passed
// to the database unchanged, so malformed input surfaces as a query error.
func (s *Store) InDuration(ctx context.Context, startDate, endDate string) ([]Event, error) {
	return s.query(ctx, instrumentation.OperationInDuration, queryInDuration, startDate, endDate)
}

// ByType returns the events whose event_type matches eventType,
// ignoring case.
func (s *Store) ByType(ctx context.Context, eventType string) ([]Event, error) {
	return s.query(ctx, instrumentation.OperationByType, queryByType, eventType)
}

func (s *Store) query(ctx context.Context, operation, query string, args ...any) (_ []Event, err error) {
	ctx, span := instrumentation.StartDBSpan(ctx, operation)
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
	}()

	sess, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			s.logger.Warn("failed to close database session",
				logging.Operation(operation),
				logging.Err(closeErr))
		}
	}()

	rows, err := sess.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrRowCount, len(events)))
	s.logger.Debug("events query completed",
		logging.Operation(operation),
		logging.Rows(len(events)))

	return events, nil
}
