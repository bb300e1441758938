// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// Task service errors.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTitle    = errors.New("title must be 1-255 characters")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
)

const maxTitleLength = 255

// Cache key kinds reported to the metrics recorder.
const (
	cacheKindTask  = "task"
	cacheKindList  = "list"
	cacheKindStats = "stats"
)

// TaskStore is the relational store capability the task service consumes.
// *repository.Repository satisfies it.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter repository.TaskFilter, offset, limit int) ([]*model.Task, error)
	CountTasks(ctx context.Context, filter repository.TaskFilter) (int, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id string) error
	CountTasksByStatus(ctx context.Context, ownerID string) (map[model.TaskStatus]int, error)
	CountTasksByPriority(ctx context.Context, ownerID string) (map[model.TaskPriority]int, error)
}

// TaskCache is the cache capability the task service consumes.
// *cache.Cache satisfies it. Implementations fail open: a returned error
// means "treat as miss" on reads and "best effort, already logged" on
// writes and invalidations.
type TaskCache interface {
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	SetTask(ctx context.Context, task *model.Task, ttl time.Duration) error
	DeleteTask(ctx context.Context, taskID string) error
	GetTaskPage(ctx context.Context, ownerID string, q cache.ListQuery) (*model.TaskPage, error)
	SetTaskPage(ctx context.Context, ownerID string, q cache.ListQuery, page *model.TaskPage, ttl time.Duration) error
	GetStats(ctx context.Context, ownerID string) (*model.TaskStats, error)
	SetStats(ctx context.Context, ownerID string, stats *model.TaskStats, ttl time.Duration) error
	InvalidateOwnerLists(ctx context.Context, ownerID string) (int, error)
}

// TaskServiceOptions tunes caching and pagination behavior.
type TaskServiceOptions struct {
	CacheTTL        time.Duration
	StatsCacheTTL   time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

func (o TaskServiceOptions) withDefaults() TaskServiceOptions {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.StatsCacheTTL <= 0 {
		o.StatsCacheTTL = time.Minute
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 20
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	return o
}

// TaskService orchestrates read-through caching and write-through
// invalidation around the relational store.
type TaskService struct {
	store   TaskStore
	cache   TaskCache
	metrics metrics.Recorder
	opts    TaskServiceOptions
}

// NewTaskService creates a new TaskService.
func NewTaskService(store TaskStore, taskCache TaskCache, recorder metrics.Recorder, opts TaskServiceOptions) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TaskService{
		store:   store,
		cache:   taskCache,
		metrics: recorder,
		opts:    opts.withDefaults(),
	}
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	OwnerID     string
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     *time.Time
}

// CreateTask creates a new task owned by the caller.
// Owner list caches are invalidated; the fresh ID cannot have a stale
// detail entry, so no point invalidation is needed.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.TaskStatusTodo
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	priority := input.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          ulid.Make().String(),
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      model.TaskStatusTodo,
		Priority:    priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// Tasks may be created directly in a later state.
	task.SetStatus(status, now)

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.IncTaskCreated()
	s.invalidateOwnerLists(ctx, task.OwnerID)

	return task, nil
}

// GetTask retrieves a task by ID on behalf of the caller.
// The detail cache key does not encode the owner, so ownership is verified
// on every hit, not just on miss; a non-owner sees NotFound.
func (s *TaskService) GetTask(ctx context.Context, callerID, taskID string) (*model.Task, error) {
	if cached, err := s.cache.GetTask(ctx, taskID); err == nil {
		s.metrics.IncCacheHit(cacheKindTask)
		if cached.OwnerID != callerID {
			return nil, ErrTaskNotFound
		}
		return cached, nil
	}
	s.metrics.IncCacheMiss(cacheKindTask)

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if task.OwnerID != callerID {
		return nil, ErrTaskNotFound
	}

	// Backfill cache; best effort.
	_ = s.cache.SetTask(ctx, task, s.opts.CacheTTL)

	return task, nil
}

// ListTasksInput defines input for listing tasks.
type ListTasksInput struct {
	OwnerID  string
	Page     int
	PageSize int
	Status   model.TaskStatus
	Priority model.TaskPriority
	Search   string
}

// ListTasks retrieves a filtered, paginated page of the caller's tasks,
// newest first. Pages are cached per query shape; the total is computed
// with the same predicate as the page.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) (*model.TaskPage, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	if input.Page < 1 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = s.opts.DefaultPageSize
	}
	if input.PageSize > s.opts.MaxPageSize {
		input.PageSize = s.opts.MaxPageSize
	}

	query := cache.ListQuery{
		Page:     input.Page,
		PageSize: input.PageSize,
		Status:   string(input.Status),
		Priority: string(input.Priority),
		Search:   input.Search,
	}

	if page, err := s.cache.GetTaskPage(ctx, input.OwnerID, query); err == nil {
		s.metrics.IncCacheHit(cacheKindList)
		return page, nil
	}
	s.metrics.IncCacheMiss(cacheKindList)

	start := time.Now()
	filter := repository.TaskFilter{
		OwnerID:  input.OwnerID,
		Status:   input.Status,
		Priority: input.Priority,
		Search:   input.Search,
	}

	tasks, err := s.store.ListTasks(ctx, filter, (input.Page-1)*input.PageSize, input.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.store.CountTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	s.metrics.ObserveListDuration(time.Since(start))

	if tasks == nil {
		tasks = []*model.Task{}
	}

	page := &model.TaskPage{
		Items:      tasks,
		Total:      total,
		Page:       input.Page,
		PageSize:   input.PageSize,
		TotalPages: (total + input.PageSize - 1) / input.PageSize,
	}

	_ = s.cache.SetTaskPage(ctx, input.OwnerID, query, page, s.opts.CacheTTL)

	return page, nil
}

// UpdateTaskInput defines input for partially updating a task.
// Nil fields are left unchanged.
type UpdateTaskInput struct {
	ID           string
	CallerID     string
	Title        *string
	Description  *string
	Status       *model.TaskStatus
	Priority     *model.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// UpdateTask applies a partial update to a task the caller owns.
// The first transition into completed stamps CompletedAt; the stamp is
// never reset, even if the task later leaves and re-enters completed.
// On success both the detail entry and the owner's list pages are
// invalidated.
func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.loadOwnedTask(ctx, input.CallerID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := validateTitle(*input.Title); err != nil {
			return nil, err
		}
		task.Title = *input.Title
	}

	if input.Description != nil {
		task.Description = *input.Description
	}

	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}

	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	now := time.Now().UTC()

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		task.SetStatus(*input.Status, now)
	}

	task.UpdatedAt = now

	if err := s.store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.metrics.IncTaskUpdated()
	s.invalidateTask(ctx, task)

	return task, nil
}

// DeleteTask hard-deletes a task the caller owns.
// Repeated deletes of the same ID keep returning NotFound.
func (s *TaskService) DeleteTask(ctx context.Context, callerID, taskID string) error {
	task, err := s.loadOwnedTask(ctx, callerID, taskID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.metrics.IncTaskDeleted()
	s.invalidateTask(ctx, task)

	return nil
}

// GetStats returns the caller's task counts grouped by status and priority.
// Stats are cached with a short TTL and never invalidated on mutation:
// bounded staleness is traded for reduced write amplification.
func (s *TaskService) GetStats(ctx context.Context, ownerID string) (*model.TaskStats, error) {
	if stats, err := s.cache.GetStats(ctx, ownerID); err == nil {
		s.metrics.IncCacheHit(cacheKindStats)
		return stats, nil
	}
	s.metrics.IncCacheMiss(cacheKindStats)

	byStatus, err := s.store.CountTasksByStatus(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status counts: %w", err)
	}

	byPriority, err := s.store.CountTasksByPriority(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load priority counts: %w", err)
	}

	stats := &model.TaskStats{
		ByStatus:   make(map[model.TaskStatus]int, len(model.Statuses())),
		ByPriority: make(map[model.TaskPriority]int, len(model.Priorities())),
	}
	for _, status := range model.Statuses() {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	for _, priority := range model.Priorities() {
		stats.ByPriority[priority] = byPriority[priority]
	}

	_ = s.cache.SetStats(ctx, ownerID, stats, s.opts.StatsCacheTTL)

	return stats, nil
}

// loadOwnedTask fetches a task from the store and verifies ownership.
// Mutations always read the source of truth, never the cache.
func (s *TaskService) loadOwnedTask(ctx context.Context, callerID, taskID string) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if task.OwnerID != callerID {
		// Indistinguishable from a missing task so existence never leaks.
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// invalidateTask removes the task's detail entry and the owner's list pages
/// after a mutation. Best effort: failures have already been logged by the
// cache layer and are bounded by TTL.
func (s *TaskService) invalidateTask(ctx context.Context, task *model.Task) {
	_ = s.cache.DeleteTask(ctx, task.ID)
	s.invalidateOwnerLists(ctx, task.OwnerID)
}

func (s *TaskService) invalidateOwnerLists(ctx context.Context, ownerID string) {
	removed, err := s.cache.InvalidateOwnerLists(ctx, ownerID)
	if err == nil {
		s.metrics.ObserveInvalidatedKeys(removed)
	}
}

func validateTitle(title string) error {
	if title == "" || len(title) > maxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}
