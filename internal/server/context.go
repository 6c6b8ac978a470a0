package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/academic-calendar/internal/database"
	"github.com/teemow/academic-calendar/internal/events"
	"github.com/teemow/academic-calendar/internal/instrumentation"
)

// ServerContext holds the dependencies shared by all tool handlers.
// It is built once at startup and is read-only while serving, apart from
// the shutdown flag.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	connector   database.Connector
	events      *events.Store
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a server context that connects to the database
// described by cfg. cfg is expected to be validated already.
func NewServerContext(ctx context.Context, cfg database.Config, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return NewServerContextWithConnector(ctx, database.NewConnector(cfg, logger), logger)
}

// NewServerContextWithConnector creates a server context around an existing
// connector. Tests use it to substitute the database.
func NewServerContextWithConnector(ctx context.Context, connector database.Connector, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		connector: connector,
		events:    events.NewStore(connector, logger),
		logger:    logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Connector returns the database connector.
func (sc *ServerContext) Connector() database.Connector {
	return sc.connector
}

// Events returns the store used by the event tools.
func (sc *ServerContext) Events() *events.Store {
	return sc.events
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetMetrics sets the metrics recorder used by instrumented handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if none is configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by instrumented handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil if none is configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
