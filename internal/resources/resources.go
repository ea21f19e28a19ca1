package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// Resource URIs.
const (
	SessionURI  = "ticktick://session"
	ProjectsURI = "ticktick://projects"
)

// RegisterResources registers the TickTick resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("ticktick client is not configured")
	}

	sessionResource := mcp.NewResource(
		SessionURI,
		"TickTick Session",
		mcp.WithResourceDescription("Authentication mode and state of the TickTick connection"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(sessionResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSession(request, sc)
	})

	projectsResource := mcp.NewResource(
		ProjectsURI,
		"TickTick Projects",
		mcp.WithResourceDescription("Projects of the configured account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(projectsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProjects(ctx, request, sc)
	})

	return nil
}

// sessionInfo never carries secrets.
type sessionInfo struct {
	Mode          string `json:"mode"`
	Configured    bool   `json:"configured"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	ReadOnly      bool   `json:"readOnly"`
	Error         string `json:"error,omitempty"`
}

func handleSession(request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	session := sc.Client().Session()
	err := session.Configured()
	info := sessionInfo{
		Mode:          session.ConfiguredMode().String(),
		Configured:    err == nil,
		Authenticated: session.Authenticated(),
		Username:      session.Username(),
		ReadOnly:      sc.ReadOnly(),
	}
	if err != nil {
		info.Error = err.Error()
	}
	return jsonContents(request.Params.URI, info)
}

func handleProjects(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	projects, err := sc.Client().ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if projects == nil {
		projects = []ticktick.Project{}
	}
	return jsonContents(request.Params.URI, projects)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
