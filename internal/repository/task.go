package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

// Common errors for task repository operations.
var (
	ErrTaskNotFound = errors.New("task not found")
)

// TaskFilter defines the predicate for listing and counting tasks.
// List and Count share this type so pagination totals are always computed
// against the same predicate as the page itself.
type TaskFilter struct {
	OwnerID  string
	Status   model.TaskStatus
	Priority model.TaskPriority
	Search   string
}

const taskColumns = "id, owner_id, title, description, status, priority, due_date, completed_at, created_at, updated_at"

// CreateTask inserts a new task into the database.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByID retrieves a task by its ID, regardless of owner.
// Ownership scoping is the service's responsibility so that cached reads
// and store reads pass through the same check.
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task by ID: %w", err)
	}

	return task, nil
}

// ListTasks retrieves one page of tasks matching the filter, newest first.
func (r *Repository) ListTasks(ctx context.Context, filter TaskFilter, offset, limit int) ([]*model.Task, error) {
	where, args := buildTaskPredicate(filter)

	query := fmt.Sprintf(
		"SELECT %s FROM tasks %s ORDER BY created_at DESC, id DESC OFFSET $%d LIMIT $%d",
		taskColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// CountTasks returns the number of tasks matching the filter.
func (r *Repository) CountTasks(ctx context.Context, filter TaskFilter) (int, error) {
	where, args := buildTaskPredicate(filter)

	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return count, nil
}

// UpdateTask updates a task's mutable fields.
func (r *Repository) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5,
		    due_date = $6, completed_at = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// DeleteTask hard-deletes a task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// CountTasksByStatus returns an owner's task counts grouped by status.
func (r *Repository) CountTasksByStatus(ctx context.Context, ownerID string) (map[model.TaskStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY status", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.TaskStatus]int)
	for rows.Next() {
		var status model.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// CountTasksByPriority returns an owner's task counts grouped by priority.
func (r *Repository) CountTasksByPriority(ctx context.Context, ownerID string) (map[model.TaskPriority]int, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT priority, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY priority", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.TaskPriority]int)
	for rows.Next() {
		var priority model.TaskPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		counts[priority] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating priority counts: %w", err)
	}

	return counts, nil
}

// buildTaskPredicate renders the shared WHERE clause for list/count queries.
func buildTaskPredicate(filter TaskFilter) (string, []any) {
	where := "WHERE owner_id = $1"
	args := []any{filter.OwnerID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	return where, args
}

// scanTask scans a single row into a Task model.
func scanTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return &task, err
}
