package ticktick_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// now is the reference instant for date classification.
var now = time.Now

// RegisterTickTickTools registers all TickTick tools with the MCP server.
// Write tools are skipped in read-only mode.
func RegisterTickTickTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("ticktick client is required")
	}

	registerListTools(s, sc)
	registerTaskTools(s, sc, readOnly)
	return nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tasksResult renders the display form of agg.Tasks and, if sources were
// skipped, a second text block naming them.
func tasksResult(ctx context.Context, sc *server.ServerContext, agg *agenda.Aggregate, tasks []ticktick.Task) (*mcp.CallToolResult, error) {
	result, err := jsonResult(agenda.DisplayAll(tasks))
	if err != nil || result.IsError || !agg.Partial() {
		return result, err
	}

	lines := make([]string, 0, len(agg.Failures)+1)
	lines = append(lines, fmt.Sprintf("Warning: %d source(s) could not be fetched and are missing from the result:", len(agg.Failures)))
	for _, f := range agg.Failures {
		sc.Metrics().RecordAggregateSkipped(ctx, f.Source)
		lines = append(lines, "- "+f.Error())
	}
	result.Content = append(result.Content, mcp.NewTextContent(strings.Join(lines, "\n")))
	return result, nil
}

// errorResult turns err into a tool error result. Validation errors are
// reported as invalid parameters.
func errorResult(err error) (*mcp.CallToolResult, error) {
	var vErr *ticktick.ValidationError
	if errors.As(err, &vErr) {
		return mcp.NewToolResultError("invalid parameters: " + vErr.Error()), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}
