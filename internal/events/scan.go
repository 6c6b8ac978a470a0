package events

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Layouts MySQL uses for the textual form of DATE, DATETIME and TIMESTAMP.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// scanEvents reads every remaining row of rows into Events.
// Column order is preserved.
func scanEvents(rows *sql.Rows) ([]Event, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	var events []Event
	for rows.Next() {
		values := make([]any, len(columnTypes))
		valuePtrs := make([]any, len(columnTypes))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		fields := make([]Field, len(columnTypes))
		for i, ct := range columnTypes {
			typeName := strings.ToUpper(ct.DatabaseTypeName())
			fields[i] = Field{
				Column: ct.Name(),
				Type:   typeName,
				Value:  convertValue(typeName, values[i]),
			}
		}
		events = append(events, Event{Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// convertValue maps a raw driver value onto the typed values an Event holds.
// Text that cannot be interpreted as its declared type is kept as a string.
func convertValue(typeName string, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return convertText(typeName, string(val))
	case string:
		return convertText(typeName, val)
	case time.Time, int64, uint64, float64, bool, TimeOfDay:
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint32:
		return uint64(val)
	case float32:
		return float64(val)
	default:
		return fmt.Sprint(val)
	}
}

func convertText(typeName, s string) any {
	switch typeName {
	case "TIME":
		if t, err := ParseTimeOfDay(s); err == nil {
			return t
		}
	case "DATE", "DATETIME", "TIMESTAMP":
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return s
}
