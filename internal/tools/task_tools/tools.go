// Package task_tools registers the MCP tools for TickTick tasks.
package task_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/nikitatsym/ticktick-mcp/internal/server"
	"github.com/nikitatsym/ticktick-mcp/internal/ticktick"
	"github.com/nikitatsym/ticktick-mcp/internal/tools/common"
)

const dateFormatHint = "Date in \"yyyy-MM-dd'T'HH:mm:ss+0000\" format (e.g. '2019-11-13T03:00:00+0000')"

// RegisterTaskTools registers all task tools with the MCP server.
// Mutating tools are skipped in read-only mode.
func RegisterTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerReadTools(s, sc)

	if !readOnly {
		registerWriteTools(s, sc)
	}

	return nil
}

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getTaskTool := mcp.NewTool("get_task",
		mcp.WithDescription("Get details of a specific task"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project containing the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to retrieve"),
		),
	)

	s.AddTool(getTaskTool, common.InstrumentedToolHandlerWithOperation("get_task", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTask(ctx, request, sc)
		}))
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createTaskTool := mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task. Defaults to the Inbox when no project is given."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The title of the task"),
		),
		mcp.WithString("project_id",
			mcp.Description("The ID of the project to create the task in (default: Inbox)"),
		),
		mcp.WithString("content",
			mcp.Description("Task content/notes"),
		),
		mcp.WithString("desc",
			mcp.Description("Description of a checklist task"),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date. "+dateFormatHint),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date. "+dateFormatHint),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority: 0=none, 1=low, 3=medium, 5=high"),
		),
		mcp.WithBoolean("is_all_day",
			mcp.Description("Whether the task is an all-day task"),
		),
		mcp.WithString("time_zone",
			mcp.Description("Time zone for the task dates (e.g. 'America/Los_Angeles')"),
		),
	)

	s.AddTool(createTaskTool, common.InstrumentedToolHandlerWithOperation("create_task", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTask(ctx, request, sc)
		}))

	updateTaskTool := mcp.NewTool("update_task",
		mcp.WithDescription("Update an existing task. Only the provided fields are changed."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project containing the task"),
		),
		mcp.WithString("title",
			mcp.Description("New title for the task"),
		),
		mcp.WithString("content",
			mcp.Description("New task content/notes"),
		),
		mcp.WithString("desc",
			mcp.Description("New checklist description"),
		),
		mcp.WithString("start_date",
			mcp.Description("New start date. "+dateFormatHint),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date. "+dateFormatHint),
		),
		mcp.WithNumber("priority",
			mcp.Description("New priority: 0=none, 1=low, 3=medium, 5=high"),
		),
		mcp.WithBoolean("is_all_day",
			mcp.Description("Whether the task is an all-day task"),
		),
	)

	s.AddTool(updateTaskTool, common.InstrumentedToolHandlerWithOperation("update_task", "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTask(ctx, request, sc)
		}))

	completeTaskTool := mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project containing the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to complete"),
		),
	)

	s.AddTool(completeTaskTool, common.InstrumentedToolHandlerWithOperation("complete_task", "complete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCompleteTask(ctx, request, sc)
		}))

	deleteTaskTool := mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project containing the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to delete"),
		),
	)

	s.AddTool(deleteTaskTool, common.InstrumentedToolHandlerWithOperation("delete_task", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteTask(ctx, request, sc)
		}))

	batchCreateTasksTool := mcp.NewTool("batch_create_tasks",
		mcp.WithDescription("Create multiple tasks in one call. Takes a JSON array of task objects, "+
			"each with at least a 'title' and optionally 'projectId', 'content', 'startDate', "+
			"'dueDate', 'priority' and 'isAllDay'."),
		mcp.WithString("tasks",
			mcp.Required(),
			mcp.Description("JSON array of task objects to create"),
		),
	)

	s.AddTool(batchCreateTasksTool, common.InstrumentedToolHandlerWithOperation("batch_create_tasks", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBatchCreateTasks(ctx, request, sc)
		}))
}

func handleGetTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskID, err := common.RequiredString(args, "task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().GetTask(ctx, projectID, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get task: %v", err)), nil
	}

	result, _ := json.MarshalIndent(task, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

// taskFromArgs builds a task payload from the optional tool arguments
// shared by create_task and update_task.
func taskFromArgs(args map[string]any) (*ticktick.Task, error) {
	task := &ticktick.Task{}

	if title, ok := common.OptionalString(args, "title"); ok {
		task.Title = title
	}
	if content, ok := common.OptionalString(args, "content"); ok {
		task.Content = content
	}
	if desc, ok := common.OptionalString(args, "desc"); ok {
		task.Desc = desc
	}
	if startDate, ok := common.OptionalString(args, "start_date"); ok {
		task.StartDate = startDate
	}
	if dueDate, ok := common.OptionalString(args, "due_date"); ok {
		task.DueDate = dueDate
	}
	if timeZone, ok := common.OptionalString(args, "time_zone"); ok {
		task.TimeZone = timeZone
	}
	priority, ok, err := common.OptionalInt(args, "priority")
	if err != nil {
		return nil, err
	}
	if ok {
		task.Priority = &priority
	}
	if isAllDay, ok := common.OptionalBool(args, "is_all_day"); ok {
		task.IsAllDay = &isAllDay
	}

	return task, nil
}

func handleCreateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if _, err := common.RequiredString(args, "title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := taskFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if projectID, ok := common.OptionalString(args, "project_id"); ok {
		task.ProjectID = projectID
	} else {
		inboxID, err := sc.Client().InboxID(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve inbox for task: %v", err)), nil
		}
		task.ProjectID = inboxID
	}

	created, err := sc.Client().CreateTask(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
	}

	result, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Task created successfully:\n%s", string(result))), nil
}

func handleUpdateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	taskID, err := common.RequiredString(args, "task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updates, err := taskFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updates.ID = taskID
	updates.ProjectID = projectID

	task, err := sc.Client().UpdateTask(ctx, taskID, updates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update task: %v", err)), nil
	}

	result, _ := json.MarshalIndent(task, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Task updated successfully:\n%s", string(result))), nil
}

func handleCompleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskID, err := common.RequiredString(args, "task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sc.Client().CompleteTask(ctx, projectID, taskID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to complete task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %s completed successfully", taskID)), nil
}

func handleDeleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskID, err := common.RequiredString(args, "task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sc.Client().DeleteTask(ctx, projectID, taskID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted successfully", taskID)), nil
}

func handleBatchCreateTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	tasksJSON, err := common.RequiredString(args, "tasks")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tasks []ticktick.Task
	if err := json.Unmarshal([]byte(tasksJSON), &tasks); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tasks must be a JSON array of task objects: %v", err)), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultError("tasks must contain at least one task"), nil
	}
	for i := range tasks {
		if tasks[i].Title == "" {
			return mcp.NewToolResultError(fmt.Sprintf("task %d is missing a title", i)), nil
		}
		if tasks[i].ProjectID == "" {
			inboxID, err := sc.Client().InboxID(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve inbox for task %d: %v", i, err)), nil
			}
			tasks[i].ProjectID = inboxID
		}
	}

	raw, err := sc.Client().BatchCreateTasks(ctx, tasks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to batch create tasks: %v", err)), nil
	}

	if raw == nil {
		return mcp.NewToolResultText(fmt.Sprintf("%d tasks created successfully", len(tasks))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d tasks created successfully:\n%s", len(tasks), string(raw))), nil
}
