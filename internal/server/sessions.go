package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/academic-calendar/internal/instrumentation"
	"github.com/teemow/academic-calendar/internal/logging"
)

// sessionInfo tracks session metadata while the session is registered.
type sessionInfo struct {
	connectedAt time.Time
}

// SessionTracker follows MCP client sessions through the mcp-go session
// hooks. It keeps the active_sessions gauge in step with the sessions the
// server has registered.
type SessionTracker struct {
	sc       *ServerContext
	sessions map[string]*sessionInfo
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewSessionTracker creates a tracker that reports to the metrics of sc.
func NewSessionTracker(sc *ServerContext) *SessionTracker {
	logger := slog.Default()
	if sc != nil {
		logger = sc.Logger()
	}
	return &SessionTracker{
		sc:       sc,
		sessions: make(map[string]*sessionInfo),
		logger:   logger,
	}
}

// RegisterHooks attaches the tracker to hooks. The hooks must be passed to
// the MCP server with mcpserver.WithHooks.
func (t *SessionTracker) RegisterHooks(hooks *mcpserver.Hooks) {
	hooks.AddOnRegisterSession(t.onRegister)
	hooks.AddOnUnregisterSession(t.onUnregister)
}

func (t *SessionTracker) onRegister(ctx context.Context, session mcpserver.ClientSession) {
	id := session.SessionID()

	t.mu.Lock()
	if _, exists := t.sessions[id]; exists {
		t.mu.Unlock()
		return
	}
	t.sessions[id] = &sessionInfo{connectedAt: time.Now()}
	t.mu.Unlock()

	if m := t.metrics(); m != nil {
		m.IncrementActiveSessions(ctx)
	}
	t.logger.Debug("mcp session registered", logging.Session(id))
}

func (t *SessionTracker) onUnregister(ctx context.Context, session mcpserver.ClientSession) {
	id := session.SessionID()

	t.mu.Lock()
	info, exists := t.sessions[id]
	if !exists {
		t.mu.Unlock()
		return
	}
	delete(t.sessions, id)
	t.mu.Unlock()

	if m := t.metrics(); m != nil {
		m.DecrementActiveSessions(ctx)
	}
	t.logger.Debug("mcp session unregistered",
		logging.Session(id),
		slog.Duration("connected_for", time.Since(info.connectedAt)))
}

func (t *SessionTracker) metrics() *instrumentation.Metrics {
	if t.sc == nil {
		return nil
	}
	return t.sc.Metrics()
}

// Count returns the number of currently registered sessions.
func (t *SessionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
