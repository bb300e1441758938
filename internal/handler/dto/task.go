// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest represents the request body for a partial task update.
// A present-but-null due_date clears the field; an absent one leaves it alone.
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *string      `json:"status,omitempty"`
	Priority    *string      `json:"priority,omitempty"`
	DueDate     OptionalTime `json:"due_date"`
}

// OptionalTime distinguishes an absent JSON field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON records that the field was present, null or not.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskListResponse represents one page of tasks.
type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// TaskStatsResponse represents per-owner task counts.
type TaskStatsResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToTaskResponse converts a Task model to TaskResponse DTO.
func ToTaskResponse(task *model.Task) *TaskResponse {
	return &TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskListResponse converts a TaskPage model to TaskListResponse.
func ToTaskListResponse(page *model.TaskPage) *TaskListResponse {
	items := make([]TaskResponse, len(page.Items))
	for i, task := range page.Items {
		items[i] = *ToTaskResponse(task)
	}
	return &TaskListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

// ToTaskStatsResponse converts TaskStats to its response DTO.
func ToTaskStatsResponse(stats *model.TaskStats) *TaskStatsResponse {
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	byPriority := make(map[string]int, len(stats.ByPriority))
	for priority, count := range stats.ByPriority {
		byPriority[string(priority)] = count
	}
	return &TaskStatsResponse{
		Total:      stats.Total,
		ByStatus:   byStatus,
		ByPriority: byPriority,
	}
}
