// Package ticktick_tools provides the MCP tools over a TickTick or Dida365
// account.
//
// # Available Tools
//
// Reading:
//   - get_tasks: All tasks, or the tasks of one project
//   - get_todays_tasks: Tasks due today
//   - get_overdue_tasks: Tasks past their due date
//   - get_projects: All projects
//   - get_task: One task by project and task ID
//
// Writing (hidden with --read-only):
//   - create_task: Create a task
//   - update_task: Change fields of a task
//   - complete_task: Mark a task completed
//   - delete_task: Delete a task
//
// Every task in a result carries an extra priorityText field. Listings that
// span several projects tolerate failing projects: the tasks that could be
// fetched are returned and the skipped sources are listed in a second text
// block of the result.
package ticktick_tools
