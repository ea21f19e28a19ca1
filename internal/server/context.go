package server

import (
	"context"
	"sync"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// ServerContext holds what the tool handlers share: the TickTick gateway,
// the aggregator built on it and the observability hooks.
type ServerContext struct {
	ctx        context.Context
	cancel     context.CancelFunc
	client     *ticktick.Client
	aggregator *agenda.Aggregator
	readOnly   bool

	mu          sync.RWMutex
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithReadOnly hides the tools that modify tasks.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// WithAggregator replaces the default aggregator over the client.
func WithAggregator(a *agenda.Aggregator) Option {
	return func(sc *ServerContext) {
		sc.aggregator = a
	}
}

// NewServerContext creates a server context around client. Unless
// WithAggregator is given, an aggregator with default settings is created.
func NewServerContext(ctx context.Context, client *ticktick.Client, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		client: client,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.aggregator == nil && client != nil {
		sc.aggregator = agenda.NewAggregator(client)
	}
	return sc
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the TickTick gateway.
func (sc *ServerContext) Client() *ticktick.Client {
	return sc.client
}

// Aggregator returns the task aggregator.
func (sc *ServerContext) Aggregator() *agenda.Aggregator {
	return sc.aggregator
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
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
