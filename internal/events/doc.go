// Package events implements the read-only queries over the academic calendar
// events table.
//
// Rows are scanned into Event values that keep each column's database type
// and a typed Go value (time.Time for dates, TimeOfDay for TIME columns,
// int64, float64 or string otherwise). Values are turned into text only by
// Render, which produces the JSON payload returned to MCP clients.
package events
