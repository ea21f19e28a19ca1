package ticktick_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
	"github.com/teemow/ticktick-mcp/internal/tools/common"
)

const dateDescription = "Accepts 2006-01-02, RFC 3339 or TickTick's 2006-01-02T15:04:05.000-0700."

func registerTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) {
	getTaskTool := mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("projectId",
			mcp.Required(),
			mcp.Description("ID of the project the task belongs to"),
		),
	)
	s.AddTool(getTaskTool, common.InstrumentedToolHandler("get_task", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, projectID, err := taskRef(request.GetArguments())
			if err != nil {
				return errorResult(err)
			}
			task, err := sc.Client().GetTask(ctx, taskID, projectID)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(agenda.Display(*task))
		}))

	if readOnly {
		return
	}

	createTaskTool := mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the task"),
		),
		mcp.WithString("content",
			mcp.Description("Notes of the task"),
		),
		mcp.WithString("desc",
			mcp.Description("Description of a checklist task"),
		),
		mcp.WithString("projectId",
			mcp.Description("Project to create the task in (default: inbox)"),
		),
		mcp.WithString("dueDate",
			mcp.Description("Due date. "+dateDescription),
		),
		mcp.WithString("startDate",
			mcp.Description("Start date. "+dateDescription),
		),
		mcp.WithBoolean("isAllDay",
			mcp.Description("Whether the task spans whole days (default: true for date-only due dates)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone of the dates, e.g. Asia/Shanghai"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority: 0 none, 1 low, 3 medium, 5 high"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated list of tags"),
		),
	)
	s.AddTool(createTaskTool, common.InstrumentedToolHandler("create_task", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			title, err := common.RequiredString(args, "title")
			if err != nil {
				return errorResult(err)
			}
			input, err := taskInput(args)
			if err != nil {
				return errorResult(err)
			}
			input.Title = &title

			task, err := sc.Client().CreateTask(ctx, *input)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(agenda.Display(*task))
		}))

	updateTaskTool := mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Omitted fields are left unchanged."),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("projectId",
			mcp.Description("ID of the project the task belongs to"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("content",
			mcp.Description("New notes"),
		),
		mcp.WithString("desc",
			mcp.Description("New checklist description"),
		),
		mcp.WithString("dueDate",
			mcp.Description("New due date. "+dateDescription),
		),
		mcp.WithString("startDate",
			mcp.Description("New start date. "+dateDescription),
		),
		mcp.WithBoolean("isAllDay",
			mcp.Description("Whether the task spans whole days"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone of the dates"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority: 0 none, 1 low, 3 medium, 5 high"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated list of tags, replacing the current ones"),
		),
	)
	s.AddTool(updateTaskTool, common.InstrumentedToolHandler("update_task", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			taskID, err := common.RequiredString(args, "taskId")
			if err != nil {
				return errorResult(err)
			}
			input, err := taskInput(args)
			if err != nil {
				return errorResult(err)
			}
			if input.Title, err = common.OptionalString(args, "title"); err != nil {
				return errorResult(err)
			}

			task, err := sc.Client().UpdateTask(ctx, taskID, *input)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(agenda.Display(*task))
		}))

	completeTaskTool := mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("projectId",
			mcp.Required(),
			mcp.Description("ID of the project the task belongs to"),
		),
	)
	s.AddTool(completeTaskTool, common.InstrumentedToolHandler("complete_task", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, projectID, err := taskRef(request.GetArguments())
			if err != nil {
				return errorResult(err)
			}
			task, err := sc.Client().CompleteTask(ctx, taskID, projectID)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(agenda.Display(*task))
		}))

	deleteTaskTool := mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("projectId",
			mcp.Required(),
			mcp.Description("ID of the project the task belongs to"),
		),
	)
	s.AddTool(deleteTaskTool, common.InstrumentedToolHandler("delete_task", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, projectID, err := taskRef(request.GetArguments())
			if err != nil {
				return errorResult(err)
			}
			if err := sc.Client().DeleteTask(ctx, taskID, projectID); err != nil {
				return errorResult(err)
			}
			return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted from project %s", taskID, projectID)), nil
		}))
}

// taskRef extracts the required taskId and projectId arguments.
func taskRef(args map[string]any) (taskID, projectID string, err error) {
	if taskID, err = common.RequiredString(args, "taskId"); err != nil {
		return "", "", err
	}
	if projectID, err = common.RequiredString(args, "projectId"); err != nil {
		return "", "", err
	}
	return taskID, projectID, nil
}

// taskInput collects the optional fields shared by create_task and
// update_task. Title is left to the caller.
func taskInput(args map[string]any) (*ticktick.TaskInput, error) {
	input := &ticktick.TaskInput{}
	var err error

	if input.ProjectID, err = common.StringOr(args, "projectId", ""); err != nil {
		return nil, err
	}
	if input.Content, err = common.OptionalString(args, "content"); err != nil {
		return nil, err
	}
	if input.Desc, err = common.OptionalString(args, "desc"); err != nil {
		return nil, err
	}
	if input.TimeZone, err = common.OptionalString(args, "timeZone"); err != nil {
		return nil, err
	}
	if input.Priority, err = common.OptionalInt(args, "priority"); err != nil {
		return nil, err
	}
	if input.Tags, err = common.OptionalStringSlice(args, "tags"); err != nil {
		return nil, err
	}
	if input.IsAllDay, err = common.OptionalBool(args, "isAllDay"); err != nil {
		return nil, err
	}

	dueDate, dueDateOnly, err := dateArg(args, "dueDate")
	if err != nil {
		return nil, err
	}
	startDate, _, err := dateArg(args, "startDate")
	if err != nil {
		return nil, err
	}
	input.DueDate = dueDate
	input.StartDate = startDate
	if dueDateOnly && input.IsAllDay == nil {
		allDay := true
		input.IsAllDay = &allDay
	}
	return input, nil
}

// dateArg parses an optional date argument and renders it in the layout the
// Open API expects. dateOnly is set for plain YYYY-MM-DD input.
func dateArg(args map[string]any, key string) (value *string, dateOnly bool, err error) {
	raw, err := common.OptionalString(args, key)
	if err != nil || raw == nil {
		return nil, false, err
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, false, nil
	}
	t, err := ticktick.ParseTime(trimmed)
	if err != nil {
		return nil, false, &ticktick.ValidationError{Field: key, Reason: "must be a date: " + err.Error()}
	}
	formatted := ticktick.FormatTime(t)
	return &formatted, len(trimmed) == len("2006-01-02"), nil
}
