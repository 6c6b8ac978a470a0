// Package event_tools provides the MCP tools that query the academic
// calendar's events table.
//
// Both tools are read-only. Each call opens its own database session,
// runs one parameterized SELECT and returns the matching rows as a JSON
// array in the tool result text. An empty match is reported as a plain
// sentence, and failures come back as "An internal error occurred: ..."
// results with IsError set rather than as protocol errors.
package event_tools
