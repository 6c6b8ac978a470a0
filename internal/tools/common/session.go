package common

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// SessionIDFromContext returns the id of the MCP client session that issued
// the current request, or "" when the request carries no session (for
// example a stateless HTTP request or a direct handler call in tests).
func SessionIDFromContext(ctx context.Context) string {
	session := mcpserver.ClientSessionFromContext(ctx)
	if session == nil {
		return ""
	}
	return session.SessionID()
}
