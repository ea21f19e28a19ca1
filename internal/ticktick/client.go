package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
)

const (
	apiPrefix = "/open/v1"

	// maxErrorBody bounds how much of a failed response is kept in RemoteError.
	maxErrorBody = 4096

	defaultTimeout = 30 * time.Second
)

// Client is the gateway to the TickTick Open API. Every call authenticates
// through the Session before it is issued.
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL (scheme and host, without /open/v1).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records every API call on m.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a gateway bound to session.
func NewClient(session *Session, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultAPIBaseURL,
		session:    session,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// ListProjects returns all projects in the order the service returns them.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, "list projects", http.MethodGet, "/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListProjectTasks returns the open tasks of one project.
func (c *Client) ListProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	var data projectData
	path := "/project/" + url.PathEscape(projectID) + "/data"
	if err := c.do(ctx, "list project tasks", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// CreateTask creates a task. Title must be set; callers validate it.
func (c *Client) CreateTask(ctx context.Context, input TaskInput) (*Task, error) {
	var task Task
	if err := c.do(ctx, "create task", http.MethodPost, "/task", input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, input TaskInput) (*Task, error) {
	input.ID = taskID
	var task Task
	path := "/task/" + url.PathEscape(taskID)
	if err := c.do(ctx, "update task", http.MethodPost, path, input, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID, projectID string) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(projectID, taskID), nil, nil)
}

// CompleteTask marks a task completed and returns its updated state.
func (c *Client) CompleteTask(ctx context.Context, taskID, projectID string) (*Task, error) {
	if err := c.do(ctx, "complete task", http.MethodPost, taskPath(projectID, taskID)+"/complete", nil, nil); err != nil {
		return nil, err
	}
	return c.GetTask(ctx, taskID, projectID)
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, taskID, projectID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, "get task", http.MethodGet, taskPath(projectID, taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func taskPath(projectID, taskID string) string {
	return "/project/" + url.PathEscape(projectID) + "/task/" + url.PathEscape(taskID)
}

// do issues one authenticated API call. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) (err error) {
	ctx, span := instrumentation.StartRemoteAPISpan(ctx, instrumentation.ServiceTickTick, op,
		attribute.String("http.method", method),
		attribute.String("http.route", instrumentation.RoutePattern(path)))
	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		c.metrics.RecordRemoteRequest(ctx, instrumentation.ServiceTickTick, op, status, "", time.Since(start))
	}()

	tok, err := c.session.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("ticktick request",
		logging.Operation(op),
		slog.String("method", method),
		slog.String("route", instrumentation.RoutePattern(path)),
		slog.Int("status", resp.StatusCode),
		slog.Duration(logging.KeyDuration, time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(slurp)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}
