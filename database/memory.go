package database

import (
	"context"
	"slices"
	"sync"

	"github.com/abefas/GoTodoAPI/models"
)

// MemoryStore keeps todos in an ordered slice guarded by a mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	todos   []models.Todo
	counter int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// List returns a copy of all todos in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]models.Todo, len(s.todos))
	copy(todos, s.todos)
	return todos, nil
}

// Get returns the todo with the given id.
func (s *MemoryStore) Get(ctx context.Context, id int) (models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Todo{}, &NotFoundError{ID: id}
	}
	return s.todos[i], nil
}

// Create appends a todo with the next id.
func (s *MemoryStore) Create(ctx context.Context, task string) (models.Todo, error) {
	if err := validateTask(task); err != nil {
		return models.Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	todo := models.Todo{ID: s.counter, Task: task}
	s.todos = append(s.todos, todo)
	return todo, nil
}

// Update replaces the task text of an existing todo.
func (s *MemoryStore) Update(ctx context.Context, id int, task string) (models.Todo, error) {
	if err := validateTask(task); err != nil {
		return models.Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Todo{}, &NotFoundError{ID: id}
	}
	s.todos[i].Task = task
	return s.todos[i], nil
}

// Delete removes the todo with the given id.
func (s *MemoryStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	s.todos = slices.Delete(s.todos, i, i+1)
	return nil
}

// Close is a no-op; the data goes away with the process.
func (s *MemoryStore) Close() error {
	return nil
}

// indexOf scans for id. Callers must hold s.mu.
func (s *MemoryStore) indexOf(id int) int {
	return slices.IndexFunc(s.todos, func(t models.Todo) bool {
		return t.ID == id
	})
}
