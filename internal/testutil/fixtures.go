package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// NewTestUser creates a user fixture with sensible defaults.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:           UniqueID("user"),
		Email:        username + "@example.com",
		Username:     username,
		FullName:     "Test User",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestTask creates a task fixture owned by the given user.
func NewTestTask(t testing.TB, ownerID, title string) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	return &model.Task{
		ID:        UniqueID("task"),
		OwnerID:   ownerID,
		Title:     title,
		Status:    model.TaskStatusTodo,
		Priority:  model.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
