// Package auth_tools registers the MCP tool for inspecting credential state.
package auth_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/nikitatsym/ticktick-mcp/internal/server"
	"github.com/nikitatsym/ticktick-mcp/internal/tools/common"
)

// RegisterAuthTools registers the auth_status tool with the MCP server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authStatusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Report which TickTick credential sources are configured. "+
			"Never returns token material."),
	)

	s.AddTool(authStatusTool, common.InstrumentedToolHandler("auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	return nil
}

func handleAuthStatus(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	manager := sc.AuthManager()
	if manager == nil {
		return mcp.NewToolResultError("no credential manager configured"), nil
	}

	status := manager.Status()
	result, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render auth status: %v", err)), nil
	}

	return mcp.NewToolResultText(string(result)), nil
}
