package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusCompleted  TaskStatus = "completed"
)

// legacyStatuses maps spellings older clients persisted onto the current set.
var legacyStatuses = map[string]TaskStatus{
	"inProgress":  StatusInProgress,
	"in-progress": StatusInProgress,
	"review":      StatusInReview,
	"inReview":    StatusInReview,
	"done":        StatusCompleted,
	"complete":    StatusCompleted,
	"pending":     StatusTodo,
}

// NormalizeStatus folds legacy variants into the canonical statuses. Unknown
// values are returned unchanged.
func NormalizeStatus(s string) TaskStatus {
	if st, ok := legacyStatuses[s]; ok {
		return st
	}
	return TaskStatus(s)
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

// Priority represents the priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Assignee is one entry of a task's assignee list
type Assignee struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Email  string `json:"email,omitempty"`
}

type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type ChecklistItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Task is the canonical in-memory task. Assignees is the single source of
// truth; AssigneeID mirrors its first entry for legacy readers.
type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      TaskStatus      `json:"status"`
	Priority    Priority        `json:"priority"`
	DueDate     string          `json:"dueDate,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
	CreatorID   string          `json:"creatorId"`
	AssigneeID  string          `json:"assigneeId,omitempty"`
	Assignees   []Assignee      `json:"assignees"`
	Progress    int             `json:"progress"`
	Tags        []string        `json:"tags"`
	Subtasks    []Subtask       `json:"subtasks,omitempty"`
	Checklists  []ChecklistItem `json:"checklists,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// HasAssignee checks both the list and the legacy single-assignee field.
func (t Task) HasAssignee(userID string) bool {
	if userID == "" {
		return false
	}
	if t.AssigneeID == userID {
		return true
	}
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

func (t Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.ID)
	}
	return ids
}

// Clone copies the slices so the result shares no backing arrays with t.
func (t Task) Clone() Task {
	t.Assignees = slices.Clone(t.Assignees)
	t.Tags = slices.Clone(t.Tags)
	t.Subtasks = slices.Clone(t.Subtasks)
	t.Checklists = slices.Clone(t.Checklists)
	return t
}

// Validate checks the fields a write may carry.
func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100")
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *TaskStatus      `json:"status"`
	Priority    *Priority        `json:"priority"`
	DueDate     *string          `json:"dueDate"`
	ProjectID   *string          `json:"projectId"`
	Assignees   *[]Assignee      `json:"assignees"`
	Progress    *int             `json:"progress"`
	Tags        *[]string        `json:"tags"`
	Subtasks    *[]Subtask       `json:"subtasks"`
	Checklists  *[]ChecklistItem `json:"checklists"`
}

// UnmarshalJSON treats an explicit null dueDate or projectId as a request to
// clear the field.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	return clearOnNull(data, map[string]**string{"dueDate": &p.DueDate, "projectId": &p.ProjectID})
}

// clearOnNull points every field whose key is present as null at "".
func clearOnNull(data []byte, fields map[string]**string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, dst := range fields {
		if v, ok := raw[key]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			*dst = Ptr("")
		}
	}
	return nil
}

func (p TaskPatch) Empty() bool {
	return p == TaskPatch{}
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", *p.Priority)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return fmt.Errorf("progress must be between 0 and 100")
	}
	return nil
}

// Apply returns a new task with the patch shallow-merged over t. t is not
// modified.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.ProjectID != nil {
		out.ProjectID = *p.ProjectID
	}
	if p.Assignees != nil {
		out.Assignees = slices.Clone(*p.Assignees)
		out.AssigneeID = ""
		if len(out.Assignees) > 0 {
			out.AssigneeID = out.Assignees[0].ID
		}
	}
	if p.Progress != nil {
		out.Progress = *p.Progress
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(*p.Tags)
	}
	if p.Subtasks != nil {
		out.Subtasks = slices.Clone(*p.Subtasks)
	}
	if p.Checklists != nil {
		out.Checklists = slices.Clone(*p.Checklists)
	}
	return out
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
