package models

import "strings"

// MaxTitleLength is the longest title the client will submit.
const MaxTitleLength = 100

// Task represents a task as returned by the API. Subtasks carry a parent ID.
type Task struct {
	ID                    int64     `json:"id"`
	Title                 string    `json:"title"`
	Priority              Priority  `json:"priority"`
	Completed             bool      `json:"completed"`
	ParentTaskID          *int64    `json:"parent_task_id,omitempty"`
	Depth                 int       `json:"depth"`
	IsSubtask             bool      `json:"is_subtask"`
	SubtaskCount          int       `json:"subtask_count,omitempty"`
	CompletedSubtaskCount int       `json:"completed_subtask_count,omitempty"`
	CompletionPercentage  *int      `json:"completion_percentage,omitempty"`
	CreatedAt             Timestamp `json:"created_at"`
}

// IsRoot reports whether the task belongs on the root list. Only the
// is_subtask flag decides this.
func (t Task) IsRoot() bool {
	return !t.IsSubtask
}

// HasSubtasks reports whether the server counted any children for t.
func (t Task) HasSubtasks() bool {
	return t.SubtaskCount > 0
}

// Progress returns the server-provided aggregate for t. When the server sent
// counts but no percentage, the percentage is derived from those counts.
func (t Task) Progress() (Progress, bool) {
	if t.SubtaskCount <= 0 {
		return Progress{}, false
	}
	p := NewProgress(t.SubtaskCount, t.CompletedSubtaskCount)
	if t.CompletionPercentage != nil {
		p.Percentage = *t.CompletionPercentage
	}
	return p, true
}

// TaskDraft holds the fields needed to create a task.
type TaskDraft struct {
	Title    string
	Priority Priority
	Parent   *Task
}

// Validate checks the draft before anything is sent.
func (d TaskDraft) Validate() error {
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if !d.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "priority must be low, medium or high"}
	}
	return nil
}

// Request converts the draft into the create payload. Parent linkage and
// depth are only set for subtasks.
func (d TaskDraft) Request() CreateTaskRequest {
	req := CreateTaskRequest{
		Title:    strings.TrimSpace(d.Title),
		Priority: d.Priority,
	}
	if d.Parent != nil {
		parentID := d.Parent.ID
		depth := d.Parent.Depth + 1
		req.ParentTaskID = &parentID
		req.Depth = &depth
	}
	return req
}

// CreateTaskRequest is the wire body of POST /tasks.
type CreateTaskRequest struct {
	Title        string   `json:"title"`
	Priority     Priority `json:"priority"`
	ParentTaskID *int64   `json:"parent_task_id,omitempty"`
	Depth        *int     `json:"depth,omitempty"`
}

// TaskUpdate is a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Priority == nil
}

// Validate checks the fields that are set.
func (u TaskUpdate) Validate() error {
	if u.Empty() {
		return &ValidationError{Field: "update", Message: "nothing to update"}
	}
	if u.Title != nil {
		if err := ValidateTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "priority must be low, medium or high"}
	}
	return nil
}

// ValidateTitle enforces a non-empty title within MaxTitleLength characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len([]rune(title)) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: "title must be at most 100 characters"}
	}
	return nil
}

// Roots keeps the root tasks of a flat listing in their original order.
func Roots(tasks []Task) []Task {
	roots := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsRoot() {
			roots = append(roots, t)
		}
	}
	return roots
}

// Suggestion is a suggested title with the priority the user picked for it.
type Suggestion struct {
	Title    string
	Priority Priority
	Selected bool
}

// ExportPayload is the body of GET /export_tasks.
type ExportPayload struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// ImportResult reports the outcome of a markdown import.
type ImportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
