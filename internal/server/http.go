package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/logging"
)

// DefaultEndpointPath is where the streamable HTTP transport is mounted.
const DefaultEndpointPath = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr         string
	EndpointPath string

	// AuthToken, when set, must be presented as a bearer token on the MCP
	// endpoint. The probe endpoints stay open.
	AuthToken string

	DisableStreaming bool
	Logger           *slog.Logger
}

// HTTPServer serves the MCP endpoint plus /healthz and /readyz.
type HTTPServer struct {
	config  HTTPServerConfig
	sc      *ServerContext
	mcp     *mcpserver.StreamableHTTPServer
	health  *HealthChecker
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer wraps mcpSrv in a streamable HTTP transport.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	if config.EndpointPath == "" {
		config.EndpointPath = DefaultEndpointPath
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(config.EndpointPath),
		mcpserver.WithLogger(logging.NewMCPLogger(config.Logger)),
	}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}

	s := &HTTPServer{
		config: config,
		sc:     sc,
		mcp:    mcpserver.NewStreamableHTTPServer(mcpSrv, opts...),
		health: NewHealthChecker(sc),
	}

	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)
	mux.Handle(config.EndpointPath, s.requireBearer(s.mcp))
	s.handler = s.recordRequests(mux)
	return s
}

// Handler returns the complete HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// HealthChecker returns the probe state, e.g. to flip readiness on shutdown.
func (s *HTTPServer) HealthChecker() *HealthChecker {
	return s.health
}

// requireBearer rejects requests without the configured token.
func (s *HTTPServer) requireBearer(next http.Handler) http.Handler {
	if s.config.AuthToken == "" {
		return next
	}
	want := []byte(s.config.AuthToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="ticktick-mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// recordRequests records HTTP metrics. Paths other than the known endpoints
// are reported as "other".
func (s *HTTPServer) recordRequests(next http.Handler) http.Handler {
	known := map[string]bool{s.config.EndpointPath: true, "/healthz": true, "/readyz": true}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if !known[path] {
			path = "other"
		}
		if s.sc != nil {
			s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
		}
	})
}

// Listen binds the listener so that Addr reports the actual address.
func (s *HTTPServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       2 * idleTimeout,
	}
	return nil
}

// Start serves until Shutdown and returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	s.config.Logger.Info("starting streamable HTTP server",
		"addr", ln.Addr().String(),
		"endpoint", s.config.EndpointPath,
		"auth", s.config.AuthToken != "")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and stops it gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var errs []error
	if err := s.mcp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr returns the bound address once listening, else the configured one.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// SessionHooks counts connected MCP sessions on the server context metrics.
func SessionHooks(sc *ServerContext) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		sc.Metrics().IncrementActiveSessions(ctx)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		sc.Metrics().DecrementActiveSessions(ctx)
	})
	return hooks
}
