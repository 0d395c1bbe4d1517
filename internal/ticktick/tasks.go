package ticktick

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/nikitatsym/ticktick-mcp/internal/logging"
)

// inboxProbeTitle marks the throwaway task used to discover the inbox ID.
const inboxProbeTitle = "__ticktick_mcp_inbox_probe__"

// GetTask retrieves a task by project and task ID.
func (c *Client) GetTask(ctx context.Context, projectID, taskID string) (*Task, error) {
	var task Task
	path := "/project/" + url.PathEscape(projectID) + "/task/" + url.PathEscape(taskID)
	if err := c.get(ctx, path, &task); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// CreateTask creates a task. Without a project ID the task goes to the
// Inbox; the response carries the assigned project ID.
func (c *Client) CreateTask(ctx context.Context, task *Task) (*Task, error) {
	var created Task
	if err := c.post(ctx, "/task", task, &created); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &created, nil
}

// UpdateTask updates an existing task. The updates must carry the task's
// project ID; only set fields are sent.
func (c *Client) UpdateTask(ctx context.Context, taskID string, updates *Task) (*Task, error) {
	var updated Task
	if err := c.post(ctx, "/task/"+url.PathEscape(taskID), updates, &updated); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &updated, nil
}

// CompleteTask marks a task as completed. The endpoint returns no body.
func (c *Client) CompleteTask(ctx context.Context, projectID, taskID string) error {
	path := "/project/" + url.PathEscape(projectID) + "/task/" + url.PathEscape(taskID) + "/complete"
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	path := "/project/" + url.PathEscape(projectID) + "/task/" + url.PathEscape(taskID)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// BatchCreateTasks creates multiple tasks in one call and returns the
// API's batch result as raw JSON.
func (c *Client) BatchCreateTasks(ctx context.Context, tasks []Task) (json.RawMessage, error) {
	raw, err := c.request(ctx, "POST", "/batch/task", batchCreateRequest{Add: tasks})
	if err != nil {
		return nil, fmt.Errorf("failed to batch create tasks: %w", err)
	}
	return raw, nil
}

// InboxID returns the ID of the built-in Inbox project. The API does not
// expose it directly, so the first call creates a throwaway task, reads
// the project ID it was assigned, and deletes it again (best effort).
// The ID is cached for the life of the client.
func (c *Client) InboxID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.inboxID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	probe, err := c.CreateTask(ctx, &Task{Title: inboxProbeTitle})
	if err != nil {
		return "", fmt.Errorf("failed to probe inbox id: %w", err)
	}
	if probe.ProjectID == "" {
		return "", fmt.Errorf("inbox probe task carried no project id")
	}

	if err := c.DeleteTask(ctx, probe.ProjectID, probe.ID); err != nil {
		c.logger.Warn("failed to clean up inbox probe task", logging.Err(err))
	}

	c.mu.Lock()
	c.inboxID = probe.ProjectID
	c.mu.Unlock()
	return probe.ProjectID, nil
}

// InboxData retrieves the Inbox project with all its tasks.
func (c *Client) InboxData(ctx context.Context) (*ProjectData, error) {
	inboxID, err := c.InboxID(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetProjectData(ctx, inboxID)
}
