package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrMode      = "mode"
	attrTool      = "tool"
	attrSource    = "source"
	attrProject   = "project_id"
)

var (
	latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	httpBuckets    = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}
)

// Metrics records the service metrics. The zero value and a nil *Metrics
// are valid and record nothing.
type Metrics struct {
	httpRequests   metric.Int64Counter
	httpDuration   metric.Float64Histogram
	activeSessions metric.Int64UpDownCounter

	remoteRequests metric.Int64Counter
	remoteDuration metric.Float64Histogram

	authAttempts metric.Int64Counter

	toolInvocations metric.Int64Counter
	toolDuration    metric.Float64Histogram

	aggregateSkipped metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	histogram := func(name, desc string, buckets []float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...))
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m.httpRequests = counter("http_requests_total", "Total number of HTTP requests", "{request}")
	m.httpDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds", httpBuckets)
	m.remoteRequests = counter("ticktick_api_requests_total", "Total number of TickTick Open API calls", "{request}")
	m.remoteDuration = histogram("ticktick_api_request_duration_seconds", "TickTick Open API call duration in seconds", latencyBuckets)
	m.authAttempts = counter("ticktick_auth_total", "Total number of session credential resolutions", "{attempt}")
	m.toolInvocations = counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = histogram("mcp_tool_duration_seconds", "MCP tool execution duration in seconds", latencyBuckets)
	m.aggregateSkipped = counter("ticktick_aggregate_skipped_total", "Sources skipped while aggregating tasks", "{source}")
	if err != nil {
		return nil, err
	}

	m.activeSessions, err = meter.Int64UpDownCounter("mcp_active_sessions",
		metric.WithDescription("Number of connected MCP sessions"),
		metric.WithUnit("{session}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_active_sessions gauge: %w", err)
	}
	return m, nil
}

// RecordHTTPRequest records one request served by the HTTP transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRemoteRequest records one call against the remote API.
// projectID is only attached with detailed labels enabled.
func (m *Metrics) RecordRemoteRequest(ctx context.Context, service, operation, status, projectID string, duration time.Duration) {
	if m == nil || m.remoteRequests == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && projectID != "" {
		kv = append(kv, attribute.String(attrProject, projectID))
	}
	attrs := metric.WithAttributes(kv...)
	m.remoteRequests.Add(ctx, 1, attrs)
	m.remoteDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAuth records a session credential resolution.
// mode is the auth mode name, result one of the AuthResult constants.
func (m *Metrics) RecordAuth(ctx context.Context, mode, result string) {
	if m == nil || m.authAttempts == nil {
		return
	}
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrResult, result),
	))
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocations == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolInvocations.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAggregateSkipped counts a project or inbox left out of an aggregate.
func (m *Metrics) RecordAggregateSkipped(ctx context.Context, source string) {
	if m == nil || m.aggregateSkipped == nil {
		return
	}
	m.aggregateSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String(attrSource, source)))
}

// IncrementActiveSessions is called when an MCP client session registers.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions is called when an MCP client session goes away.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
