package ticktick

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/teemow/ticktick-mcp/internal/logging"
)

// Inbox routes, tried in order.
const (
	InboxRouteProjectData = "project-data"
	InboxRouteTaskQuery   = "task-query"
)

// InboxResult holds the inbox tasks and, when no route worked, the reason.
// Route names the route that answered; it is empty when Warning is set.
type InboxResult struct {
	Tasks   []Task
	Route   string
	Warning error
}

// ListInboxTasks fetches the inbox through the project data route and falls
// back to the task query route. When both fail the result is empty and the
// failure is reported through Warning; the returned error is reserved for
// configuration and authentication failures.
func (c *Client) ListInboxTasks(ctx context.Context) (*InboxResult, error) {
	tasks, primaryErr := c.ListProjectTasks(ctx, InboxProjectID)
	if primaryErr == nil {
		return &InboxResult{Tasks: tasks, Route: InboxRouteProjectData}, nil
	}
	if IsFatal(primaryErr) {
		return nil, primaryErr
	}
	c.logger.Debug("inbox project data route failed, trying task query",
		logging.Err(primaryErr))

	tasks, fallbackErr := c.queryInboxTasks(ctx)
	if fallbackErr == nil {
		return &InboxResult{Tasks: tasks, Route: InboxRouteTaskQuery}, nil
	}
	if IsFatal(fallbackErr) {
		return nil, fallbackErr
	}

	warning := errors.Join(primaryErr, fallbackErr)
	c.logger.Warn("inbox unavailable, continuing without inbox tasks",
		logging.Project(InboxProjectID),
		logging.Err(warning))
	return &InboxResult{Tasks: []Task{}, Warning: warning}, nil
}

// queryInboxTasks uses GET /task?projectId=inbox. The route answers either a
// bare task array or a project data object.
func (c *Client) queryInboxTasks(ctx context.Context) ([]Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list inbox tasks", http.MethodGet, "/task?projectId="+InboxProjectID, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []Task{}, nil
	}

	var tasks []Task
	if err := json.Unmarshal(raw, &tasks); err == nil {
		return tasks, nil
	}
	var data projectData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &RemoteError{Op: "list inbox tasks", Err: err}
	}
	c.logger.Debug("inbox task query answered with project data", slog.Int("tasks", len(data.Tasks)))
	return data.Tasks, nil
}
