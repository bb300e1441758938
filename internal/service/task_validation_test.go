package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

func TestCreateTask_Validation(t *testing.T) {
	svc, _, _, _ := newTestTaskService()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateTaskInput
		wantErr error
	}{
		{"empty title", CreateTaskInput{OwnerID: "alice"}, ErrInvalidTitle},
		{"title too long", CreateTaskInput{OwnerID: "alice", Title: strings.Repeat("x", 256)}, ErrInvalidTitle},
		{"title at limit", CreateTaskInput{OwnerID: "alice", Title: strings.Repeat("x", 255)}, nil},
		{"bad status", CreateTaskInput{OwnerID: "alice", Title: "t", Status: "archived"}, ErrInvalidStatus},
		{"bad priority", CreateTaskInput{OwnerID: "alice", Title: "t", Priority: "urgent"}, ErrInvalidPriority},
		{"explicit valid values", CreateTaskInput{
			OwnerID: "alice", Title: "t",
			Status: model.TaskStatusInProgress, Priority: model.TaskPriorityLow,
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTask: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateTask_DirectlyCompletedStampsCompletedAt(t *testing.T) {
	svc, _, _, _ := newTestTaskService()

	task := mustCreate(t, svc, CreateTaskInput{
		OwnerID: "alice", Title: "born done", Status: model.TaskStatusCompleted,
	})

	if task.CompletedAt == nil {
		t.Error("task created as completed must carry a completion timestamp")
	}
}

func TestUpdateTask_Validation(t *testing.T) {
	svc, _, _, _ := newTestTaskService()
	ctx := context.Background()

	task := mustCreate(t, svc, CreateTaskInput{OwnerID: "alice", Title: "base"})

	empty := ""
	long := strings.Repeat("x", 256)
	badStatus := model.TaskStatus("archived")
	badPriority := model.TaskPriority("urgent")

	tests := []struct {
		name    string
		input   UpdateTaskInput
		wantErr error
	}{
		{"empty title", UpdateTaskInput{ID: task.ID, CallerID: "alice", Title: &empty}, ErrInvalidTitle},
		{"title too long", UpdateTaskInput{ID: task.ID, CallerID: "alice", Title: &long}, ErrInvalidTitle},
		{"bad status", UpdateTaskInput{ID: task.ID, CallerID: "alice", Status: &badStatus}, ErrInvalidStatus},
		{"bad priority", UpdateTaskInput{ID: task.ID, CallerID: "alice", Priority: &badPriority}, ErrInvalidPriority},
		{"no-op update", UpdateTaskInput{ID: task.ID, CallerID: "alice"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateTask(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateTask: got %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Failed validation must not mutate the stored task.
	got, err := svc.GetTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "base" {
		t.Errorf("title = %q after rejected updates, want %q", got.Title, "base")
	}
}

func TestUpdateTask_DueDateSetAndClear(t *testing.T) {
	svc, _, _, _ := newTestTaskService()
	ctx := context.Background()

	task := mustCreate(t, svc, CreateTaskInput{OwnerID: "alice", Title: "deadline"})

	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	updated, err := svc.UpdateTask(ctx, UpdateTaskInput{ID: task.ID, CallerID: "alice", DueDate: &due})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", updated.DueDate, due)
	}

	cleared, err := svc.UpdateTask(ctx, UpdateTaskInput{ID: task.ID, CallerID: "alice", ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if cleared.DueDate != nil {
		t.Errorf("due date = %v after clear, want nil", cleared.DueDate)
	}
}

func TestListTasks_PageSizeClamping(t *testing.T) {
	svc, _, _, _ := newTestTaskService()
	ctx := context.Background()

	mustCreate(t, svc, CreateTaskInput{OwnerID: "alice", Title: "only one"})

	tests := []struct {
		name     string
		input    ListTasksInput
		wantPage int
		wantSize int
	}{
		{"zero values default", ListTasksInput{OwnerID: "alice"}, 1, 20},
		{"negative page", ListTasksInput{OwnerID: "alice", Page: -3}, 1, 20},
		{"oversized page size", ListTasksInput{OwnerID: "alice", PageSize: 500}, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListTasks(ctx, tt.input)
			if err != nil {
				t.Fatalf("ListTasks failed: %v", err)
			}
			if page.Page != tt.wantPage || page.PageSize != tt.wantSize {
				t.Errorf("page/size = %d/%d, want %d/%d", page.Page, page.PageSize, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestListTasks_InvalidFilters(t *testing.T) {
	svc, _, _, _ := newTestTaskService()
	ctx := context.Background()

	if _, err := svc.ListTasks(ctx, ListTasksInput{OwnerID: "alice", Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status filter: got %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.ListTasks(ctx, ListTasksInput{OwnerID: "alice", Priority: "urgent"}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority filter: got %v, want ErrInvalidPriority", err)
	}
}
