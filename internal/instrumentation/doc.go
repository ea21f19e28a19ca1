// Package instrumentation wires OpenTelemetry metrics and tracing for
// ticktick-mcp.
//
// A Provider is created once at startup from DefaultConfig. It installs the
// global meter and tracer providers and exposes a Metrics recorder. Metrics
// are exported to the default Prometheus registry (served by the metrics
// server), over OTLP/HTTP or to stdout.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: HTTP transport
//   - ticktick_api_requests_total, ticktick_api_request_duration_seconds:
//     Open API calls by operation and status
//   - ticktick_auth_total: session credential resolutions by mode and result
//   - ticktick_aggregate_skipped_total: projects or inbox left out of an
//     aggregated task list
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls
//   - mcp_active_sessions: connected MCP sessions
//
// # Tracing
//
// Tool calls start a server span (StartToolSpan) and every Open API call a
// client span (StartRemoteAPISpan). Tracing is off unless TRACING_EXPORTER is
// set to otlp or stdout.
//
// # Audit
//
// AuditLogger writes one structured line per tool call. The TickTick username
// is hashed unless AUDIT_LOGGING_INCLUDE_USER=true.
package instrumentation
