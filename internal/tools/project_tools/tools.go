// Package project_tools registers the MCP tools for TickTick projects and
// the built-in Inbox.
package project_tools

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

// RegisterProjectTools registers all project and inbox tools with the MCP
// server. Mutating tools are skipped in read-only mode.
func RegisterProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerInboxTools(s, sc)
	registerReadTools(s, sc)

	if !readOnly {
		registerWriteTools(s, sc)
	}

	return nil
}

func registerInboxTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getInboxTool := mcp.NewTool("get_inbox",
		mcp.WithDescription("Get the Inbox project with all its undone tasks"),
	)

	s.AddTool(getInboxTool, common.InstrumentedToolHandlerWithOperation("get_inbox", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetInbox(ctx, request, sc)
		}))

	getInboxIDTool := mcp.NewTool("get_inbox_id",
		mcp.WithDescription("Get the ID of the built-in Inbox project"),
	)

	s.AddTool(getInboxIDTool, common.InstrumentedToolHandlerWithOperation("get_inbox_id", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetInboxID(ctx, request, sc)
		}))
}

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listProjectsTool := mcp.NewTool("list_projects",
		mcp.WithDescription("List all TickTick projects"),
	)

	s.AddTool(listProjectsTool, common.InstrumentedToolHandlerWithOperation("list_projects", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListProjects(ctx, request, sc)
		}))

	getProjectTool := mcp.NewTool("get_project",
		mcp.WithDescription("Get details of a specific project"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to retrieve"),
		),
	)

	s.AddTool(getProjectTool, common.InstrumentedToolHandlerWithOperation("get_project", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetProject(ctx, request, sc)
		}))

	getProjectWithDataTool := mcp.NewTool("get_project_with_data",
		mcp.WithDescription("Get a project together with its undone tasks and kanban columns"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to retrieve"),
		),
	)

	s.AddTool(getProjectWithDataTool, common.InstrumentedToolHandlerWithOperation("get_project_with_data", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetProjectWithData(ctx, request, sc)
		}))
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createProjectTool := mcp.NewTool("create_project",
		mcp.WithDescription("Create a new TickTick project"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The name of the new project"),
		),
		mcp.WithString("color",
			mcp.Description("Project color as a hex string (e.g. '#F18181')"),
		),
		mcp.WithString("view_mode",
			mcp.Description("View mode: 'list', 'kanban' or 'timeline' (default: 'list')"),
		),
		mcp.WithString("kind",
			mcp.Description("Project kind: 'TASK' or 'NOTE' (default: 'TASK')"),
		),
	)

	s.AddTool(createProjectTool, common.InstrumentedToolHandlerWithOperation("create_project", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateProject(ctx, request, sc)
		}))

	updateProjectTool := mcp.NewTool("update_project",
		mcp.WithDescription("Update an existing project. Only the provided fields are changed."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to update"),
		),
		mcp.WithString("name",
			mcp.Description("New name for the project"),
		),
		mcp.WithString("color",
			mcp.Description("New project color as a hex string"),
		),
		mcp.WithString("view_mode",
			mcp.Description("New view mode: 'list', 'kanban' or 'timeline'"),
		),
		mcp.WithString("kind",
			mcp.Description("New project kind: 'TASK' or 'NOTE'"),
		),
	)

	s.AddTool(updateProjectTool, common.InstrumentedToolHandlerWithOperation("update_project", "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateProject(ctx, request, sc)
		}))

	deleteProjectTool := mcp.NewTool("delete_project",
		mcp.WithDescription("Delete a project and all its tasks"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to delete"),
		),
	)

	s.AddTool(deleteProjectTool, common.InstrumentedToolHandlerWithOperation("delete_project", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteProject(ctx, request, sc)
		}))
}

func handleGetInbox(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	data, err := sc.Client().InboxData(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get inbox: %v", err)), nil
	}

	result, _ := json.MarshalIndent(data, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleGetInboxID(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	inboxID, err := sc.Client().InboxID(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve inbox ID: %v", err)), nil
	}

	return mcp.NewToolResultText(inboxID), nil
}

func handleListProjects(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects, err := sc.Client().ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list projects: %v", err)), nil
	}

	result, _ := json.MarshalIndent(projects, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleGetProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	project, err := sc.Client().GetProject(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get project: %v", err)), nil
	}

	result, _ := json.MarshalIndent(project, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleGetProjectWithData(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := sc.Client().GetProjectData(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get project data: %v", err)), nil
	}

	result, _ := json.MarshalIndent(data, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleCreateProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	project := &ticktick.Project{
		Name:     name,
		ViewMode: "list",
		Kind:     "TASK",
	}
	if color, ok := common.OptionalString(args, "color"); ok {
		project.Color = color
	}
	if viewMode, ok := common.OptionalString(args, "view_mode"); ok {
		project.ViewMode = viewMode
	}
	if kind, ok := common.OptionalString(args, "kind"); ok {
		project.Kind = kind
	}

	created, err := sc.Client().CreateProject(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create project: %v", err)), nil
	}

	result, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Project created successfully:\n%s", string(result))), nil
}

func handleUpdateProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updates := &ticktick.Project{}
	if name, ok := common.OptionalString(args, "name"); ok {
		updates.Name = name
	}
	if color, ok := common.OptionalString(args, "color"); ok {
		updates.Color = color
	}
	if viewMode, ok := common.OptionalString(args, "view_mode"); ok {
		updates.ViewMode = viewMode
	}
	if kind, ok := common.OptionalString(args, "kind"); ok {
		updates.Kind = kind
	}

	project, err := sc.Client().UpdateProject(ctx, projectID, updates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update project: %v", err)), nil
	}

	result, _ := json.MarshalIndent(project, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Project updated successfully:\n%s", string(result))), nil
}

func handleDeleteProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	projectID, err := common.RequiredString(args, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sc.Client().DeleteProject(ctx, projectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete project: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Project %s deleted successfully", projectID)), nil
}
