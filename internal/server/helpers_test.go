package server

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/teemow/academic-calendar/internal/database"
)

// fakeConnector hands out sessions that cannot run queries. It is enough
// for exercising connectivity checks.
type fakeConnector struct {
	err      error
	connects atomic.Int32
	closes   atomic.Int32
}

func (c *fakeConnector) Connect(ctx context.Context) (database.Session, error) {
	c.connects.Add(1)
	if c.err != nil {
		return nil, &database.ConnectionError{Err: c.err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &database.ConnectionError{Err: err}
	}
	return &fakeSession{closes: &c.closes}, nil
}

type fakeSession struct {
	closes *atomic.Int32
}

func (s *fakeSession) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServerContext(t *testing.T, connector database.Connector) *ServerContext {
	t.Helper()
	sc, err := NewServerContextWithConnector(context.Background(), connector, discardLogger())
	if err != nil {
		t.Fatalf("NewServerContextWithConnector() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
