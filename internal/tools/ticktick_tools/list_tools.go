package ticktick_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
	"github.com/teemow/ticktick-mcp/internal/tools/common"
)

const projectIDDescription = "Project ID to restrict the result to. Use \"inbox\" for the inbox. All projects and the inbox when omitted."

func registerListTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getProjectsTool := mcp.NewTool("get_projects",
		mcp.WithDescription("List all TickTick projects"),
	)
	s.AddTool(getProjectsTool, common.InstrumentedToolHandler("get_projects", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projects, err := sc.Client().ListProjects(ctx)
			if err != nil {
				return errorResult(err)
			}
			if projects == nil {
				projects = []ticktick.Project{}
			}
			return jsonResult(projects)
		}))

	getTasksTool := mcp.NewTool("get_tasks",
		mcp.WithDescription("List tasks across all projects and the inbox, or of a single project"),
		mcp.WithString("projectId",
			mcp.Description(projectIDDescription),
		),
	)
	s.AddTool(getTasksTool, common.InstrumentedToolHandler("get_tasks", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			agg, err := listTasks(ctx, sc, request)
			if err != nil {
				return errorResult(err)
			}
			return tasksResult(ctx, sc, agg, agg.Tasks)
		}))

	getTodaysTasksTool := mcp.NewTool("get_todays_tasks",
		mcp.WithDescription("List uncompleted tasks that are due today"),
		mcp.WithString("projectId",
			mcp.Description(projectIDDescription),
		),
	)
	s.AddTool(getTodaysTasksTool, common.InstrumentedToolHandler("get_todays_tasks", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			agg, err := listTasks(ctx, sc, request)
			if err != nil {
				return errorResult(err)
			}
			return tasksResult(ctx, sc, agg, agenda.FilterDueToday(agg.Tasks, now()))
		}))

	getOverdueTasksTool := mcp.NewTool("get_overdue_tasks",
		mcp.WithDescription("List uncompleted tasks whose due date has passed"),
		mcp.WithString("projectId",
			mcp.Description(projectIDDescription),
		),
		mcp.WithNumber("timezoneOffsetHours",
			mcp.Description("Timezone offset from UTC in hours (default: 8)"),
		),
	)
	s.AddTool(getOverdueTasksTool, common.InstrumentedToolHandler("get_overdue_tasks", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			offset, err := common.OptionalInt(request.GetArguments(), "timezoneOffsetHours")
			if err != nil {
				return errorResult(err)
			}
			offsetHours := agenda.DefaultTimezoneOffsetHours
			if offset != nil {
				offsetHours = *offset
			}

			agg, err := listTasks(ctx, sc, request)
			if err != nil {
				return errorResult(err)
			}
			return tasksResult(ctx, sc, agg, agenda.FilterOverdue(agg.Tasks, now(), offsetHours))
		}))
}

// listTasks fetches the tasks of the optional projectId argument.
func listTasks(ctx context.Context, sc *server.ServerContext, request mcp.CallToolRequest) (*agenda.Aggregate, error) {
	projectID, err := common.StringOr(request.GetArguments(), "projectId", "")
	if err != nil {
		return nil, err
	}
	return sc.Aggregator().ListTasks(ctx, projectID)
}
