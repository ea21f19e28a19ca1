// Package server holds the runtime pieces around the MCP server: the
// ServerContext shared by tool handlers, the streamable HTTP transport with
// its probes and optional bearer token, and the Prometheus metrics server.
//
// The stdio transport needs none of the HTTP pieces; it only uses
// ServerContext.
package server
