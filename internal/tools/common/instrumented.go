package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nikitatsym/ticktick-mcp/internal/instrumentation"
	"github.com/nikitatsym/ticktick-mcp/internal/logging"
	"github.com/nikitatsym/ticktick-mcp/internal/server"
)

// ToolHandler is the handler signature expected by the MCP server. It is an
// alias so wrapped handlers stay assignable to mcp-go's ToolHandlerFunc.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
// It records tool invocation metrics and logs the invocation for audit purposes.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithOperation(toolName, "", sc, handler)
}

// InstrumentedToolHandlerWithOperation is like InstrumentedToolHandler but also
// records the API operation type (list, get, create, update, complete, delete)
// in the audit record.
func InstrumentedToolHandlerWithOperation(
	toolName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		audit := sc.Audit()

		if metrics == nil && audit == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		if operation != "" {
			invocation.WithOperation(operation)
		}

		args := request.GetArguments()
		if projectID, ok := args["project_id"].(string); ok && projectID != "" {
			invocation.WithProject(projectID)
		}
		if taskID, ok := args["task_id"].(string); ok && taskID != "" {
			invocation.WithTask(taskID)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := logging.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = logging.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
		}

		if audit != nil {
			audit.LogToolInvocation(invocation)
		}

		return result, err
	}
}
