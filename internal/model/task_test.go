package model

import (
	"testing"
	"time"
)

func TestTaskStatus_IsValid(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskStatusTodo, true},
		{TaskStatusInProgress, true},
		{TaskStatusCompleted, true},
		{TaskStatus("done"), false},
		{TaskStatus(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("TaskStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTaskPriority_IsValid(t *testing.T) {
	tests := []struct {
		priority TaskPriority
		want     bool
	}{
		{TaskPriorityLow, true},
		{TaskPriorityMedium, true},
		{TaskPriorityHigh, true},
		{TaskPriority("urgent"), false},
		{TaskPriority(""), false},
	}

	for _, tt := range tests {
		if got := tt.priority.IsValid(); got != tt.want {
			t.Errorf("TaskPriority(%q).IsValid() = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestTask_SetStatus_StampsCompletedAt(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	task.SetStatus(TaskStatusCompleted, now)

	if task.Status != TaskStatusCompleted {
		t.Errorf("status = %q, want %q", task.Status, TaskStatusCompleted)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", task.CompletedAt, now)
	}
}

func TestTask_SetStatus_CompletedAtSticky(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	task.SetStatus(TaskStatusCompleted, first)
	task.SetStatus(TaskStatusInProgress, later)

	if task.CompletedAt == nil || !task.CompletedAt.Equal(first) {
		t.Fatalf("completed_at after un-complete = %v, want %v", task.CompletedAt, first)
	}

	task.SetStatus(TaskStatusCompleted, later)

	if !task.CompletedAt.Equal(first) {
		t.Errorf("completed_at after re-complete = %v, want first value %v", task.CompletedAt, first)
	}
}

func TestTask_SetStatus_NonCompletedNeverStamps(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	now := time.Now().UTC()

	task.SetStatus(TaskStatusInProgress, now)
	task.SetStatus(TaskStatusTodo, now)

	if task.CompletedAt != nil {
		t.Errorf("completed_at = %v, want nil", task.CompletedAt)
	}
}
