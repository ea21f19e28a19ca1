package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func newServerContext(t *testing.T, baseURL string, creds ticktick.Credentials, readOnly bool) *server.ServerContext {
	t.Helper()
	client := ticktick.NewClient(ticktick.NewSession(creds), ticktick.WithBaseURL(baseURL))
	sc := server.NewServerContext(context.Background(), client, server.WithReadOnly(readOnly))
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func contentText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	return text.Text
}

func TestRegisterResources(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithResourceCapabilities(false, false))
	sc := newServerContext(t, "http://127.0.0.1:1", ticktick.Credentials{}, false)
	assert.NoError(t, RegisterResources(s, sc))
	assert.Error(t, RegisterResources(s, nil))
}

func TestHandleSession(t *testing.T) {
	tests := []struct {
		name     string
		creds    ticktick.Credentials
		readOnly bool
		expected sessionInfo
	}{
		{
			name:     "token",
			creds:    ticktick.Credentials{AccessToken: "secret-token"},
			expected: sessionInfo{Mode: "token", Configured: true},
		},
		{
			name:     "password read-only",
			creds:    ticktick.Credentials{Username: "ann@example.com", Password: "hunter2"},
			readOnly: true,
			expected: sessionInfo{Mode: "password", Configured: true, Username: "ann@example.com", ReadOnly: true},
		},
		{
			name:     "missing",
			expected: sessionInfo{Mode: "none", Error: "ticktick: no usable credentials configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newServerContext(t, "http://127.0.0.1:1", tt.creds, tt.readOnly)
			contents, err := handleSession(readRequest(SessionURI), sc)
			require.NoError(t, err)

			text := contentText(t, contents)
			assert.NotContains(t, text, "secret-token")
			assert.NotContains(t, text, "hunter2")

			var info sessionInfo
			require.NoError(t, json.Unmarshal([]byte(text), &info))
			if tt.expected.Error != "" {
				assert.NotEmpty(t, info.Error)
				info.Error = tt.expected.Error
			}
			assert.Equal(t, tt.expected, info)
		})
	}
}

func TestHandleProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /open/v1/project", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tt", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Work"},{"id":"p2","name":"Home"}]`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	sc := newServerContext(t, ts.URL, ticktick.Credentials{AccessToken: "tt"}, false)
	contents, err := handleProjects(context.Background(), readRequest(ProjectsURI), sc)
	require.NoError(t, err)

	var projects []ticktick.Project
	require.NoError(t, json.Unmarshal([]byte(contentText(t, contents)), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "Work", projects[0].Name)
}

func TestHandleProjects_NoCredentials(t *testing.T) {
	sc := newServerContext(t, "http://127.0.0.1:1", ticktick.Credentials{}, false)
	_, err := handleProjects(context.Background(), readRequest(ProjectsURI), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list projects")
}
