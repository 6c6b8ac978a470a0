// Package common provides shared utilities for MCP tool implementations.
// It wraps tool handlers with tracing, metrics and audit logging and
// exposes helpers for reading request context such as the MCP session id.
package common
