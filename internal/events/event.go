package events

import (
	"math"
	"time"
)

// Well-known columns of the events table. Any other columns are carried
// through untouched.
const (
	ColumnID        = "id"
	ColumnEventDate = "event_date"
	ColumnStartTime = "start_time"
	ColumnEventType = "event_type"
)

// Field is a single column value of an Event.
type Field struct {
	// Column is the column name as reported by the database.
	Column string
	// Type is the database type name, e.g. "DATE", "TIME" or "VARCHAR".
	Type string
	// Value is nil for NULL, otherwise one of time.Time, TimeOfDay,
	// int64, uint64, float64, bool or string.
	Value any
}

// Event is one row of the events table, with columns in query order.
type Event struct {
	Fields []Field
}

// Get returns the value of column and whether the column is present.
func (e Event) Get(column string) (any, bool) {
	for _, f := range e.Fields {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// ID returns the row identifier, if the table exposes one as an integer
// that fits in an int64.
func (e Event) ID() (int64, bool) {
	v, ok := e.Get(ColumnID)
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, true
	case uint64:
		if id > math.MaxInt64 {
			return 0, false
		}
		return int64(id), true
	}
	return 0, false
}

// EventDate returns the calendar date of the event.
func (e Event) EventDate() (time.Time, bool) {
	v, ok := e.Get(ColumnEventDate)
	if !ok {
		return time.Time{}, false
	}
	d, ok := v.(time.Time)
	return d, ok
}

// StartTime returns the time of day the event starts.
func (e Event) StartTime() (TimeOfDay, bool) {
	v, ok := e.Get(ColumnStartTime)
	if !ok {
		return 0, false
	}
	t, ok := v.(TimeOfDay)
	return t, ok
}

// EventType returns the free-text category of the event, or "" when unset.
func (e Event) EventType() string {
	v, _ := e.Get(ColumnEventType)
	s, _ := v.(string)
	return s
}
