// Package model defines domain entities for the application.
package model

import "time"

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid checks if the status is a known state.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Statuses lists all task statuses in display order.
func Statuses() []TaskStatus {
	return []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid checks if the priority is a known level.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Priorities lists all task priorities in ascending urgency.
func Priorities() []TaskPriority {
	return []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}
}

// Task represents a task entity owned by exactly one user.
type Task struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SetStatus transitions the task to the given status.
// The first transition into completed stamps CompletedAt; the timestamp
// survives any later transitions, including re-entering completed.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusCompleted && t.Status != TaskStatusCompleted && t.CompletedAt == nil {
		completedAt := now
		t.CompletedAt = &completedAt
	}
	t.Status = status
}

// TaskPage is a single page of a filtered task listing, together with the
// totals clients need to render pagination. This is the unit cached per
// list query shape.
type TaskPage struct {
	Items      []*Task `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// TaskStats summarizes one owner's tasks grouped by status and priority.
type TaskStats struct {
	Total      int                  `json:"total_tasks"`
	ByStatus   map[TaskStatus]int   `json:"by_status"`
	ByPriority map[TaskPriority]int `json:"by_priority"`
}
