package ticktick

import (
	"context"
	"fmt"
	"net/url"
)

// ListProjects lists all projects. The built-in Inbox is not included;
// use InboxData to read inbox tasks.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/project", &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.get(ctx, "/project/"+url.PathEscape(projectID), &project); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// GetProjectData retrieves a project with its tasks and kanban columns.
func (c *Client) GetProjectData(ctx context.Context, projectID string) (*ProjectData, error) {
	var data ProjectData
	if err := c.get(ctx, "/project/"+url.PathEscape(projectID)+"/data", &data); err != nil {
		return nil, fmt.Errorf("failed to get project data: %w", err)
	}
	return &data, nil
}

// CreateProject creates a new project. Name is required; color, view mode
// and kind are optional.
func (c *Client) CreateProject(ctx context.Context, project *Project) (*Project, error) {
	var created Project
	if err := c.post(ctx, "/project", project, &created); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &created, nil
}

// UpdateProject updates an existing project. Only set fields are sent.
func (c *Client) UpdateProject(ctx context.Context, projectID string, updates *Project) (*Project, error) {
	var updated Project
	if err := c.post(ctx, "/project/"+url.PathEscape(projectID), updates, &updated); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	if err := c.delete(ctx, "/project/"+url.PathEscape(projectID)); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
