package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// MemStore is an in-memory stand-in for the relational store.
// It satisfies service.TaskStore and service.UserStore and mirrors the
// repository's filter, ordering, and error semantics so service tests
// exercise the real orchestration logic.
type MemStore struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
	users map[string]*model.User

	// Call counters let tests observe whether a read was served from
	// the cache or fell through to the store.
	TaskGets   int
	TaskLists  int
	TaskCounts int
	StatCalls  int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		tasks: make(map[string]*model.Task),
		users: make(map[string]*model.User),
	}
}

func cloneTask(t *model.Task) *model.Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	return &c
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// CreateTask stores a copy of the task.
func (s *MemStore) CreateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetTaskByID returns a copy of the task or repository.ErrTaskNotFound.
func (s *MemStore) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TaskGets++

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func matchesFilter(t *model.Task, filter repository.TaskFilter) bool {
	if t.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && t.Priority != filter.Priority {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func (s *MemStore) filtered(filter repository.TaskFilter) []*model.Task {
	var matched []*model.Task
	for _, t := range s.tasks {
		if matchesFilter(t, filter) {
			matched = append(matched, cloneTask(t))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched
}

// ListTasks returns one page of matching tasks, newest first.
func (s *MemStore) ListTasks(_ context.Context, filter repository.TaskFilter, offset, limit int) ([]*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TaskLists++

	matched := s.filtered(filter)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// CountTasks returns the number of matching tasks.
func (s *MemStore) CountTasks(_ context.Context, filter repository.TaskFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TaskCounts++
	return len(s.filtered(filter)), nil
}

// UpdateTask overwrites a stored task or returns repository.ErrTaskNotFound.
func (s *MemStore) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return repository.ErrTaskNotFound
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// DeleteTask removes a stored task or returns repository.ErrTaskNotFound.
func (s *MemStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// CountTasksByStatus groups an owner's tasks by status.
func (s *MemStore) CountTasksByStatus(_ context.Context, ownerID string) (map[model.TaskStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatCalls++

	counts := make(map[model.TaskStatus]int)
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

// CountTasksByPriority groups an owner's tasks by priority.
func (s *MemStore) CountTasksByPriority(_ context.Context, ownerID string) (map[model.TaskPriority]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[model.TaskPriority]int)
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			counts[t.Priority]++
		}
	}
	return counts, nil
}

// CreateUser stores a copy of the user, enforcing unique email and username.
func (s *MemStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrUserExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUserByID returns a copy of the user or repository.ErrUserNotFound.
func (s *MemStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetUserByUsername returns a copy of the user or repository.ErrUserNotFound.
func (s *MemStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdateUser overwrites a stored user, enforcing unique email.
func (s *MemStore) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range s.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}
