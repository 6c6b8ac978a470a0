package database

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/teemow/academic-calendar/internal/logging"
)

// Session is an open database session scoped to a single tool invocation.
// *sql.DB satisfies it, which keeps test doubles trivial.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Connector opens sessions. Handlers depend on this interface rather than
// on a concrete driver so tests can substitute their own.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// MySQLConnector opens a fresh session against a MySQL-compatible server
// for every call to Connect. Sessions are never shared or reused.
type MySQLConnector struct {
	cfg    Config
	logger *slog.Logger
}

// NewConnector returns a MySQLConnector for cfg.
func NewConnector(cfg Config, logger *slog.Logger) *MySQLConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &MySQLConnector{cfg: cfg, logger: logger}
}

// Config returns the configuration the connector was built with.
func (c *MySQLConnector) Config() Config {
	return c.cfg
}

// Connect dials the server and verifies the session with a ping.
// Every failure is returned as a *ConnectionError.
func (c *MySQLConnector) Connect(ctx context.Context) (Session, error) {
	connector, err := mysql.NewConnector(c.cfg.driverConfig())
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Err: err}
	}

	c.logger.Info("database connection successful",
		slog.String("addr", c.cfg.Addr()),
		logging.Database(c.cfg.Database))

	return &Conn{db: db}, nil
}

// Conn is a Session backed by a dedicated single-connection pool.
type Conn struct {
	db *sql.DB

	closeOnce sync.Once
	closeErr  error
}

// QueryContext runs query with args bound as parameters.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// Close releases the underlying connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

// SetDriverLogger routes the MySQL driver's internal messages (dropped
// connections, packet errors) through logger instead of the standard
// library's log package.
func SetDriverLogger(logger *slog.Logger) error {
	return mysql.SetLogger(logging.NewSlogAdapter(logger))
}
