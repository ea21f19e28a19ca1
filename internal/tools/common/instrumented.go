package common

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/server"
)

// ToolHandler is the signature mcp-go expects for tool handlers.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a tracing span, metrics
// and audit logging. Metrics and audit logging are skipped when the server
// context has none configured.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", true, sc, handler))
func InstrumentedToolHandler(toolName string, readOnly bool, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.Bool(instrumentation.SpanAttrReadOnly, readOnly))
		defer span.End()

		args := request.GetArguments()
		projectID, _ := args["projectId"].(string)
		taskID, _ := args["taskId"].(string)
		if projectID != "" {
			span.SetAttributes(attribute.String(instrumentation.SpanAttrProject, projectID))
		}
		if taskID != "" {
			span.SetAttributes(attribute.String(instrumentation.SpanAttrTask, taskID))
		}

		invocation := instrumentation.NewToolInvocation(toolName).
			WithReadOnly(readOnly).
			WithTarget(projectID, taskID).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)

		// The session mode is only known once the handler has authenticated.
		if client := sc.Client(); client != nil {
			mode := client.Session().Mode().String()
			invocation.WithUser(client.Session().Username(), mode)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrAuthMode, mode))
		}

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errors.New(ResultText(result))
		}
		invocation.Complete(failure == nil, failure)
		if failure != nil {
			instrumentation.SetSpanError(span, failure)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

// ResultText concatenates the text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
