package ticktick

// Task priority values used by the TickTick Open API.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 3
	PriorityHigh   = 5
)

// Task status values.
const (
	StatusNormal    = 0
	StatusCompleted = 2
)

// Project is a TickTick project (task list). Optional fields carry
// omitempty so partial create/update payloads send only what is set.
type Project struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Color      string `json:"color,omitempty"`
	ViewMode   string `json:"viewMode,omitempty"` // "list", "kanban" or "timeline"
	Kind       string `json:"kind,omitempty"`     // "TASK" or "NOTE"
	Closed     bool   `json:"closed,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
	SortOrder  int64  `json:"sortOrder,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// Column is a kanban column within a project.
type Column struct {
	ID        string `json:"id,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Name      string `json:"name,omitempty"`
	SortOrder int64  `json:"sortOrder,omitempty"`
}

// ProjectData is a project together with its undone tasks and columns.
type ProjectData struct {
	Project Project  `json:"project"`
	Tasks   []Task   `json:"tasks"`
	Columns []Column `json:"columns"`
}

// ChecklistItem is a subtask within a task.
type ChecklistItem struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title,omitempty"`
	Status        *int   `json:"status,omitempty"` // 0=normal, 1=completed
	StartDate     string `json:"startDate,omitempty"`
	IsAllDay      *bool  `json:"isAllDay,omitempty"`
	SortOrder     *int64 `json:"sortOrder,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
	CompletedTime string `json:"completedTime,omitempty"`
}

// Task is a TickTick task. Date strings use the API's
// "yyyy-MM-dd'T'HH:mm:ssZ" format; repeatFlag is an iCal RRULE.
// Pointer fields distinguish "unset" from zero values in updates.
type Task struct {
	ID            string          `json:"id,omitempty"`
	ProjectID     string          `json:"projectId,omitempty"`
	Title         string          `json:"title,omitempty"`
	Content       string          `json:"content,omitempty"`
	Desc          string          `json:"desc,omitempty"`
	StartDate     string          `json:"startDate,omitempty"`
	DueDate       string          `json:"dueDate,omitempty"`
	IsAllDay      *bool           `json:"isAllDay,omitempty"`
	Priority      *int            `json:"priority,omitempty"`
	Status        *int            `json:"status,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	TimeZone      string          `json:"timeZone,omitempty"`
	Reminders     []string        `json:"reminders,omitempty"`
	RepeatFlag    string          `json:"repeatFlag,omitempty"`
	Items         []ChecklistItem `json:"items,omitempty"`
	SortOrder     int64           `json:"sortOrder,omitempty"`
	CompletedTime string          `json:"completedTime,omitempty"`
}

// batchCreateRequest is the payload shape of the batch task endpoint.
type batchCreateRequest struct {
	Add []Task `json:"add"`
}
