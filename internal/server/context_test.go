package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/academic-calendar/internal/database"
	"github.com/teemow/academic-calendar/internal/instrumentation"
)

func TestNewServerContext(t *testing.T) {
	cfg := database.Config{
		Host:     "127.0.0.1",
		Port:     4000,
		User:     "root",
		Password: "secret",
		Database: "calendar",
		TLS:      "false",
	}

	sc, err := NewServerContext(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	connector, ok := sc.Connector().(*database.MySQLConnector)
	require.True(t, ok, "expected a MySQL connector")
	assert.Equal(t, cfg, connector.Config())
	assert.NotNil(t, sc.Events())
	assert.NotNil(t, sc.Logger())
}

func TestServerContext_MetricsAndAudit(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})

	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())

	m := &instrumentation.Metrics{}
	al := instrumentation.NewAuditLoggerWithConfig(discardLogger(), instrumentation.AuditLoggingConfig{Enabled: true})
	sc.SetMetrics(m)
	sc.SetAuditLogger(al)

	assert.Same(t, m, sc.Metrics())
	assert.Same(t, al, sc.AuditLogger())
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)

	// Idempotent
	require.NoError(t, sc.Shutdown())
}
