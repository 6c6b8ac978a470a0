// Package server holds the runtime pieces shared by the MCP transports of
// the academic-calendar server.
//
// # Key Components
//
// ServerContext carries the dependencies tool handlers need: the database
// connector, the events store, the logger and the optional metrics and
// audit logger. It is built once at startup.
//
// HTTPServer serves the MCP server over the streamable HTTP transport and
// mounts the health endpoints next to it:
//   - /mcp: MCP endpoint (path configurable)
//   - /healthz: liveness
//   - /readyz: readiness
//   - /healthz/detailed: uptime and a database connectivity check
//
// SessionTracker follows MCP sessions through the mcp-go session hooks and
// keeps the active_sessions gauge current.
//
// MetricsServer exposes Prometheus metrics on a separate address so they
// are never served on the MCP endpoint.
package server
