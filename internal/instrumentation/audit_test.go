package instrumentation

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInvocationComplete(t *testing.T) {
	ti := NewToolInvocation("create_task").
		WithOperation("create").
		WithProject("p1")

	time.Sleep(time.Millisecond)
	ti.CompleteSuccess()

	assert.True(t, ti.Success)
	assert.Equal(t, "success", ti.Status())
	assert.Greater(t, ti.Duration, time.Duration(0))
	assert.Empty(t, ti.Error)
}

func TestToolInvocationCompleteWithError(t *testing.T) {
	ti := NewToolInvocation("delete_task").
		WithOperation("delete").
		WithProject("p1").
		WithTask("t1")
	ti.CompleteWithError(assert.AnError)

	assert.False(t, ti.Success)
	assert.Equal(t, "error", ti.Status())
	assert.Equal(t, assert.AnError.Error(), ti.Error)
}

func TestToolInvocationLogAttrs(t *testing.T) {
	ti := NewToolInvocation("update_task").
		WithOperation("update").
		WithProject("p1").
		WithTask("t1")
	ti.CompleteSuccess()

	attrs := ti.LogAttrs()

	keys := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		keys[a.Key] = true
	}
	assert.True(t, keys["tool"])
	assert.True(t, keys["operation"])
	assert.True(t, keys["project_id"])
	assert.True(t, keys["task_id"])
	assert.False(t, keys["error"], "no error attr on success")
}

func TestAuditLoggerLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLogger(logger)

	al.LogToolInvocation(NewToolInvocation("list_projects").CompleteSuccess())
	require.Contains(t, buf.String(), "tool_executed")
	require.Contains(t, buf.String(), "list_projects")

	buf.Reset()
	al.LogToolInvocation(NewToolInvocation("delete_project").CompleteWithError(assert.AnError))
	require.Contains(t, buf.String(), "tool_failed")
	require.Contains(t, buf.String(), assert.AnError.Error())
}

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation("list_projects").CompleteSuccess())
	assert.Empty(t, buf.String())
}
