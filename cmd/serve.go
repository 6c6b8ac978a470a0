package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/academic-calendar/internal/database"
	"github.com/teemow/academic-calendar/internal/instrumentation"
	"github.com/teemow/academic-calendar/internal/logging"
	"github.com/teemow/academic-calendar/internal/server"
	"github.com/teemow/academic-calendar/internal/tools/event_tools"
)

const (
	serverName = "academic-calendar"

	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	// metricsStartupTimeout bounds waiting for the metrics listener.
	metricsStartupTimeout = 5 * time.Second
)

const serverInstructions = `Read-only access to an academic calendar.
Use get_events_in_duration with two dates in YYYY-MM-DD format to list the events
in that range, and get_events_by_type to list every event of one type (for example
"exam" or "lecture"; the match ignores case). Results are JSON arrays of objects
whose keys are the column names of the events table.`

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects the serve flags.
type serveOptions struct {
	transport        string
	debugMode        bool
	logLevel         string
	logFormat        string
	httpAddr         string
	endpointPath     string
	disableStreaming bool
	stateless        bool
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server that exposes the academic
calendar query tools to AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Database configuration (environment, required):
  TIDB_USER, TIDB_PASSWORD, TIDB_HOST, TIDB_DATABASE
  TIDB_PORT (default 4000), TIDB_TLS (default preferred), TIDB_CONNECT_TIMEOUT (default 10s)

The server exits immediately if the configuration is incomplete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadMetricsEnvVars(cmd, &opts.metrics)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debugMode, "debug", false, "Enable debug logging (overrides --log-level)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json. Logs are always written to stderr.")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.endpointPath, "endpoint", server.DefaultEndpointPath, "Path of the MCP endpoint (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.stateless, "stateless", false, "Do not track MCP sessions on the HTTP transport")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(opts serveOptions) error {
	if err := validateTransport(opts.transport); err != nil {
		return err
	}

	level, err := resolveLogLevel(opts)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(os.Stderr, level, opts.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := database.SetDriverLogger(logger); err != nil {
		return fmt.Errorf("failed to set database driver logger: %w", err)
	}

	// Configuration is read once and checked before anything is served.
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	if err := dbConfig.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.DatabaseName = dbConfig.Database

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, dbConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	tracker := server.NewSessionTracker(serverContext)
	mcpSrv, err := newMCPServer(serverContext, tracker)
	if err != nil {
		return err
	}

	logger.Info("starting MCP server", startupLogAttrs(opts.transport, dbConfig)...)

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, tracker, provider, opts)
	default:
		return runStdioServer(shutdownCtx, mcpSrv, logger)
	}
}

// startupLogAttrs describes the effective configuration. The password is
// masked.
func startupLogAttrs(transport string, cfg database.Config) []any {
	return []any{
		slog.String("transport", transport),
		slog.String("version", version),
		slog.String("db_addr", cfg.Addr()),
		logging.Database(cfg.Database),
		slog.String("db_user", cfg.User),
		slog.String("db_password", logging.SanitizeSecret(cfg.Password)),
		slog.String("db_tls", cfg.TLS),
	}
}

// resolveLogLevel applies --debug over --log-level.
func resolveLogLevel(opts serveOptions) (slog.Level, error) {
	if opts.debugMode {
		return slog.LevelDebug, nil
	}
	if opts.logLevel == "" {
		return slog.LevelInfo, nil
	}
	return logging.ParseLevel(opts.logLevel)
}

func validateTransport(transport string) error {
	switch transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", transport, transportStdio, transportStreamableHTTP)
	}
}

// newMCPServer creates the MCP server with every tool registered. The
// tracker is optional.
func newMCPServer(sc *server.ServerContext, tracker *server.SessionTracker) (*mcpserver.MCPServer, error) {
	options := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions),
	}
	if tracker != nil {
		hooks := &mcpserver.Hooks{}
		tracker.RegisterHooks(hooks)
		options = append(options, mcpserver.WithHooks(hooks))
	}

	mcpSrv := mcpserver.NewMCPServer(serverName, version, options...)

	if err := event_tools.RegisterEventTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register event tools: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	// stdout carries the protocol; nothing else may write to it.
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	logger.Info("stdio server stopped")
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, tracker *server.SessionTracker, provider *instrumentation.Provider, opts serveOptions) error {
	logger := sc.Logger()

	httpServer, err := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		EndpointPath:     opts.endpointPath,
		DisableStreaming: opts.disableStreaming,
		Stateless:        opts.stateless,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	httpServer.Health().SetSessionTracker(tracker)

	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(provider, opts.metrics.Addr, logger)
		if err != nil {
			return err
		}
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case err := <-serverDone:
		if err != nil {
			serveErr = fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	errs := []error{serveErr}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}

// startMetricsServer starts the metrics server and waits until it listens.
func startMetricsServer(provider *instrumentation.Provider, addr string, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	if err := waitForStart(metricsReady, metricsErr, metricsStartupTimeout); err != nil {
		return nil, err
	}
	logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
	return metricsServer, nil
}

// waitForStart blocks until ready is closed, errs yields or is closed, or the
// timeout expires. A closed errs without a value means the server returned
// cleanly before it ever signalled readiness.
func waitForStart(ready <-chan struct{}, errs <-chan error, timeout time.Duration) error {
	select {
	case <-ready:
		return nil
	case err, ok := <-errs:
		if !ok {
			return errors.New("metrics server stopped before becoming ready")
		}
		return fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(timeout):
		return errors.New("metrics server startup timed out")
	}
}

// loadMetricsEnvVars loads metrics configuration from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func loadMetricsEnvVars(cmd *cobra.Command, config *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if value := os.Getenv("METRICS_ENABLED"); value != "" {
			if enabled, err := strconv.ParseBool(value); err == nil {
				config.Enabled = enabled
			} else {
				slog.Warn("invalid METRICS_ENABLED value, keeping default",
					slog.String("value", value),
					slog.Bool("enabled", config.Enabled))
			}
		}
	}

	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Addr = addr
		}
	}
}
