package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/abefas/GoTodoAPI/models"
)

// Store abstracts access to the todo collection.
// Records are returned in insertion order and ids are never reused.
type Store interface {
	List(ctx context.Context) ([]models.Todo, error)
	Get(ctx context.Context, id int) (models.Todo, error)
	Create(ctx context.Context, task string) (models.Todo, error)
	Update(ctx context.Context, id int, task string) (models.Todo, error)
	Delete(ctx context.Context, id int) error
	Close() error
}

// DefaultSeed holds the records every new store starts with.
var DefaultSeed = []string{"Build an API", "?????", "profit!"}

// Seed creates one record per task, in order.
func Seed(ctx context.Context, s Store, tasks []string) error {
	for _, task := range tasks {
		if _, err := s.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to seed task %q: %w", task, err)
		}
	}
	return nil
}

// validateTask rejects empty and whitespace-only task text.
func validateTask(task string) error {
	if strings.TrimSpace(task) == "" {
		return ErrTaskRequired
	}
	return nil
}
