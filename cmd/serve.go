package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/resources"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/tools/ticktick_tools"
)

// ServeConfig holds the flags of the serve command.
type ServeConfig struct {
	Transport        string
	HTTPAddr         string
	AuthToken        string
	DisableStreaming bool
	ReadOnly         bool
	Debug            bool
	JSONLogs         bool
	Concurrency      int

	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	opts := ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing TickTick tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Read-only Mode:
  --read-only hides create_task, update_task, complete_task and delete_task.

HTTP Authentication:
  --auth-token (or MCP_AUTH_TOKEN) requires clients to send the token as a
  bearer token. Without it the endpoint is open; bind it to localhost.

Observability:
  Metrics and tracing are configured with INSTRUMENTATION_ENABLED,
  METRICS_EXPORTER, OTEL_TRACES_EXPORTER and OTEL_EXPORTER_OTLP_ENDPOINT.
  Prometheus metrics are served on --metrics-addr for the HTTP transport.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &opts)
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.JSONLogs, "json-logs", false, "Log as JSON instead of text")
	cmd.Flags().StringVar(&opts.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.AuthToken, "auth-token", "", "Bearer token required on the HTTP endpoint. Can also use MCP_AUTH_TOKEN env var.")
	cmd.Flags().BoolVar(&opts.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "Only register tools that do not modify tasks")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Number of projects fetched in parallel (default: config value, 4)")

	cmd.Flags().BoolVar(&opts.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables to flags that were not set
// explicitly.
func loadServeEnvVars(cmd *cobra.Command, opts *ServeConfig) {
	if !cmd.Flags().Changed("auth-token") {
		if token := os.Getenv("MCP_AUTH_TOKEN"); token != "" {
			opts.AuthToken = token
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			opts.Metrics.Enabled = v == "true"
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.Metrics.Addr = addr
		}
	}
}

func runServe(cmd *cobra.Command, opts ServeConfig) error {
	if opts.Transport != transportStdio && opts.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol on stdio, so logs always go to stderr
	logger := logging.NewLogger(os.Stderr, opts.Debug, opts.JSONLogs)
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = opts.Concurrency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

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

	client, aggregator := newClient(cfg, logger, provider.Metrics())
	serverContext := server.NewServerContext(shutdownCtx, client,
		server.WithReadOnly(opts.ReadOnly),
		server.WithAggregator(aggregator),
	)
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.Audit))
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	if err := client.Session().Configured(); err != nil {
		logger.Warn("tool calls will fail until credentials are configured", logging.Err(err))
	}

	mcpSrv := mcpserver.NewMCPServer("ticktick-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithHooks(server.SessionHooks(serverContext)),
	)

	if err := registerAllTools(mcpSrv, serverContext, opts.ReadOnly); err != nil {
		return err
	}

	logger.Info("starting MCP server",
		"transport", opts.Transport,
		"version", version,
		"read_only", opts.ReadOnly,
		"instrumentation", provider.Enabled())

	switch opts.Transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts, provider, logger)
	default:
		return runStdioServer(mcpSrv, logger)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
		if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "TickTick",
			register: func() error {
				return ticktick_tools.RegisterTickTickTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "resource",
			register: func() error {
				return resources.RegisterResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg ServeConfig, provider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             cfg.HTTPAddr,
		AuthToken:        cfg.AuthToken,
		DisableStreaming: cfg.DisableStreaming,
		Logger:           logger,
	})
	if cfg.AuthToken == "" {
		logger.Warn("HTTP endpoint is not protected; set --auth-token or MCP_AUTH_TOKEN when exposing it beyond localhost")
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.ServesPrometheus() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	serverDone := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverDone <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				serverDone <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case runErr = <-serverDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down HTTP server", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down metrics server", logging.Err(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
