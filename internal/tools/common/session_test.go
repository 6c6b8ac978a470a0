package common

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type stubSession struct {
	id string
}

func (s stubSession) Initialize()                                         {}
func (s stubSession) Initialized() bool                                   { return true }
func (s stubSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return nil }
func (s stubSession) SessionID() string                                   { return s.id }

func TestSessionIDFromContext(t *testing.T) {
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("SessionIDFromContext() without session = %q, want empty", got)
	}

	srv := mcpserver.NewMCPServer("test", "1.0.0")
	ctx := srv.WithContext(context.Background(), stubSession{id: "session-1"})

	if got := SessionIDFromContext(ctx); got != "session-1" {
		t.Errorf("SessionIDFromContext() = %q, want %q", got, "session-1")
	}
}
