package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitatsym/ticktick-mcp/internal/instrumentation"
	"github.com/nikitatsym/ticktick-mcp/internal/server"
)

// Wrapped handlers must be directly usable with MCPServer.AddTool.
func TestInstrumentedToolHandlerIsAddToolCompatible(t *testing.T) {
	sc := server.NewServerContext(t.Context(), server.ContextOptions{})

	var handler mcpserver.ToolHandlerFunc = InstrumentedToolHandler("get_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	result, err := handler(t.Context(), newRequest("get_task", nil))
	require.NoError(t, err)
	require.NotNil(t, result)
}

func newAuditedContext(t *testing.T, buf *bytes.Buffer) *server.ServerContext {
	t.Helper()
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(buf, nil)))
	return server.NewServerContext(t.Context(), server.ContextOptions{
		Metrics: &instrumentation.Metrics{},
		Audit:   audit,
	})
}

func newRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestInstrumentedToolHandlerPassesResultThrough(t *testing.T) {
	var buf bytes.Buffer
	sc := newAuditedContext(t, &buf)

	handler := InstrumentedToolHandler("list_projects", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	result, err := handler(t.Context(), newRequest("list_projects", nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	assert.Contains(t, buf.String(), "tool_executed")
	assert.Contains(t, buf.String(), "list_projects")
}

func TestInstrumentedToolHandlerRecordsErrorResult(t *testing.T) {
	var buf bytes.Buffer
	sc := newAuditedContext(t, &buf)

	handler := InstrumentedToolHandlerWithOperation("delete_task", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("task not found"), nil
		})

	result, err := handler(t.Context(), newRequest("delete_task", map[string]any{
		"project_id": "p1",
		"task_id":    "t1",
	}))
	require.NoError(t, err, "tool errors are results, not transport errors")
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	out := buf.String()
	assert.Contains(t, out, "tool_failed")
	assert.Contains(t, out, "project_id=p1")
	assert.Contains(t, out, "task_id=t1")
	assert.Contains(t, out, "operation=delete")
}

func TestInstrumentedToolHandlerWithoutInstrumentation(t *testing.T) {
	sc := server.NewServerContext(t.Context(), server.ContextOptions{})

	called := false
	handler := InstrumentedToolHandler("get_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("ok"), nil
		})

	_, err := handler(t.Context(), newRequest("get_task", nil))
	require.NoError(t, err)
	assert.True(t, called)
}
