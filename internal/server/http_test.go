package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`

func newTestHTTPServer(t *testing.T, sc *ServerContext, config HTTPServerConfig) (*HTTPServer, *SessionTracker) {
	t.Helper()

	tracker := NewSessionTracker(sc)
	hooks := &mcpserver.Hooks{}
	tracker.RegisterHooks(hooks)

	mcpSrv := mcpserver.NewMCPServer("academic-calendar-test", "test",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(hooks),
	)

	srv, err := NewHTTPServer(mcpSrv, sc, config)
	require.NoError(t, err)
	return srv, tracker
}

func postInitialize(t *testing.T, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(initializeRequest))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestNewHTTPServer_Validation(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})

	_, err := NewHTTPServer(nil, sc, HTTPServerConfig{})
	assert.ErrorContains(t, err, "mcp server is required")

	_, err = NewHTTPServer(mcpserver.NewMCPServer("x", "1"), nil, HTTPServerConfig{})
	assert.ErrorContains(t, err, "server context is required")

	srv, err := NewHTTPServer(mcpserver.NewMCPServer("x", "1"), sc, HTTPServerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, srv.Addr())
	assert.Equal(t, DefaultEndpointPath, srv.config.EndpointPath)
}

func TestHTTPServer_SessionLifecycle(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	reader := withManualMetrics(t, sc)
	srv, tracker := newTestHTTPServer(t, sc, HTTPServerConfig{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postInitialize(t, ts.URL+DefaultEndpointPath)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"academic-calendar-test"`)

	sessionID := resp.Header.Get(mcpserver.HeaderKeySessionID)
	require.NotEmpty(t, sessionID)

	assert.Eventually(t, func() bool { return tracker.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+DefaultEndpointPath, nil)
	require.NoError(t, err)
	req.Header.Set(mcpserver.HeaderKeySessionID, sessionID)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	assert.Zero(t, tracker.Count())
	assert.Zero(t, sumValue(t, reader, "active_sessions"))
	assert.EqualValues(t, 2, sumValue(t, reader, "http_requests_total"))
}

func TestHTTPServer_HealthEndpoints(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	srv, _ := newTestHTTPServer(t, sc, HTTPServerConfig{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestHTTPServer_CustomEndpointPath(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	srv, _ := newTestHTTPServer(t, sc, HTTPServerConfig{EndpointPath: "/calendar/mcp"})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postInitialize(t, ts.URL+"/calendar/mcp")
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_PathLabel(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	srv, _ := newTestHTTPServer(t, sc, HTTPServerConfig{})

	assert.Equal(t, "/mcp", srv.pathLabel("/mcp"))
	assert.Equal(t, "/readyz", srv.pathLabel("/readyz"))
	assert.Equal(t, pathOther, srv.pathLabel("/events/1"))
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	srv, _ := newTestHTTPServer(t, sc, HTTPServerConfig{Addr: "127.0.0.1:0"})

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.StartWithReadySignal(ready) }()

	select {
	case <-ready:
	case err := <-errCh:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for HTTP server")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.False(t, srv.Health().IsReady())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("server did not stop after Shutdown")
	}
}

func TestHTTPServer_ShutdownWithoutStart(t *testing.T) {
	sc := newTestServerContext(t, &fakeConnector{})
	srv, _ := newTestHTTPServer(t, sc, HTTPServerConfig{})

	assert.NoError(t, srv.Shutdown(context.Background()))
}
