package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/academic-calendar/internal/logging"
)

const (
	// DefaultHTTPAddr is the default listen address of the streamable HTTP transport.
	DefaultHTTPAddr = ":8080"

	// DefaultEndpointPath is where the MCP endpoint is mounted.
	DefaultEndpointPath = "/mcp"

	// pathOther labels requests to unknown paths in HTTP metrics.
	pathOther = "other"
)

// HTTPServerConfig holds configuration for the streamable HTTP transport.
type HTTPServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	// EndpointPath is the path of the MCP endpoint. Defaults to "/mcp".
	EndpointPath string

	// DisableStreaming rejects GET requests that would open an SSE stream.
	DisableStreaming bool

	// Stateless disables MCP session tracking on the transport.
	Stateless bool
}

// HTTPServer serves an MCP server over the streamable HTTP transport
// together with the health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	health     *HealthChecker
	sc         *ServerContext
	config     HTTPServerConfig

	mu         sync.Mutex
	httpServer *http.Server
}

// NewHTTPServer creates the HTTP transport for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.EndpointPath == "" {
		config.EndpointPath = DefaultEndpointPath
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath(config.EndpointPath),
		mcpserver.WithDisableStreaming(config.DisableStreaming),
		mcpserver.WithStateLess(config.Stateless),
		mcpserver.WithLogger(logging.NewSlogAdapter(sc.Logger())),
	)

	return &HTTPServer{
		mcpServer:  mcpServer,
		streamable: streamable,
		health:     NewHealthChecker(sc),
		sc:         sc,
		config:     config,
	}, nil
}

// Health returns the health checker backing the health endpoints.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the HTTP handler with the MCP endpoint and health
// endpoints mounted. Every request is recorded in the HTTP metrics.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.config.EndpointPath, s.sessionTermination(s.streamable))
	s.health.RegisterHealthEndpoints(mux)
	return s.metricsMiddleware(mux)
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal is Start that closes ready, when non-nil, once the
// listener is bound. http.ErrServerClosed is not reported.
func (s *HTTPServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.config.Addr = ln.Addr().String()
	s.mu.Unlock()

	s.sc.Logger().Info("starting streamable HTTP server",
		"addr", ln.Addr().String(),
		"endpoint", s.config.EndpointPath)
	if ready != nil {
		close(ready)
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listen address. After the server is ready this is the
// bound address.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Addr
}

// Shutdown marks the server as not ready and gracefully stops it.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.sc.Logger().Info("shutting down streamable HTTP server")
	return srv.Shutdown(ctx)
}

// sessionTermination unregisters the MCP session after a successful DELETE.
// The streamable transport only drops its own per-session state.
func (s *HTTPServer) sessionTermination(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if id := r.Header.Get(mcpserver.HeaderKeySessionID); id != "" && rec.status == http.StatusOK {
			s.mcpServer.UnregisterSession(r.Context(), id)
		}
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE responses stream through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := s.sc.Metrics()
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.RecordHTTPRequest(r.Context(), r.Method, s.pathLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// pathLabel keeps the path label bounded to the mounted routes.
func (s *HTTPServer) pathLabel(path string) string {
	switch path {
	case s.config.EndpointPath, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return pathOther
	}
}
