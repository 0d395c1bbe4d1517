package project_tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitatsym/ticktick-mcp/internal/server"
	"github.com/nikitatsym/ticktick-mcp/internal/ticktick"
)

type staticCreds struct{}

func (staticCreds) AccessToken(context.Context) (string, error)  { return "test-token", nil }
func (staticCreds) ForceRefresh(context.Context) (string, error) { return "test-token", nil }

func newTestContext(t *testing.T, handler http.HandlerFunc) *server.ServerContext {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := ticktick.NewClient(staticCreds{}, ticktick.Options{
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return server.NewServerContext(t.Context(), server.ContextOptions{Client: client})
}

func newRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Content[0] is %T, not TextContent", result.Content[0])
	return text.Text
}

func TestHandleListProjects(t *testing.T) {
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "p1", "name": "Work"},
			{"id": "p2", "name": "Home"},
		})
	})

	result, err := handleListProjects(t.Context(), newRequest("list_projects", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Work")
	assert.Contains(t, text, "Home")
}

func TestHandleGetProjectRequiresID(t *testing.T) {
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected for missing arguments")
	})

	result, err := handleGetProject(t.Context(), newRequest("get_project", map[string]any{}), sc)
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "project_id is required")
}

func TestHandleGetProjectAPIErrorBecomesToolError(t *testing.T) {
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no such project"})
	})

	result, err := handleGetProject(t.Context(), newRequest("get_project", map[string]any{
		"project_id": "missing",
	}), sc)
	require.NoError(t, err, "API failures surface as tool error results, not handler errors")
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "404")
}

func TestHandleCreateProject(t *testing.T) {
	var received map[string]any
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "p9", "name": "Errands"})
	})

	result, err := handleCreateProject(t.Context(), newRequest("create_project", map[string]any{
		"name":      "Errands",
		"view_mode": "kanban",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "created successfully")

	assert.Equal(t, "Errands", received["name"])
	assert.Equal(t, "kanban", received["viewMode"])
	assert.Equal(t, "TASK", received["kind"], "kind defaults to TASK")
}

func TestHandleDeleteProject(t *testing.T) {
	var method, path string
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	result, err := handleDeleteProject(t.Context(), newRequest("delete_project", map[string]any{
		"project_id": "p1",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/project/p1", path)
}

func TestHandleGetInboxID(t *testing.T) {
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "probe", "projectId": "inbox42"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	result, err := handleGetInboxID(t.Context(), newRequest("get_inbox_id", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "inbox42", resultText(t, result))
}
