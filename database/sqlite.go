package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abefas/GoTodoAPI/models"
)

// AUTOINCREMENT keeps SQLite from handing out the id of a deleted row again.
const createTableQuery = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task TEXT NOT NULL
);`

// SQLiteStore keeps todos in a SQLite database, in memory by default.
type SQLiteStore struct {
	DB *sql.DB
}

// NewSQLiteStore wraps an open database and ensures the todos table exists.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, createTableQuery); err != nil {
		return nil, fmt.Errorf("failed to create 'todos' table: %w", err)
	}
	return &SQLiteStore{DB: db}, nil
}

// List returns all todos ordered by id, which is insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, task FROM todos ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Task); err != nil {
			return nil, fmt.Errorf("failed to scan todo row: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return todos, nil
}

// Get returns the todo with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id int) (models.Todo, error) {
	var t models.Todo
	err := s.DB.QueryRowContext(ctx, "SELECT id, task FROM todos WHERE id = ?", id).Scan(&t.ID, &t.Task)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, &NotFoundError{ID: id}
	} else if err != nil {
		return models.Todo{}, fmt.Errorf("failed to retrieve todo %d: %w", id, err)
	}
	return t, nil
}

// Create inserts a todo and returns it with its assigned id.
func (s *SQLiteStore) Create(ctx context.Context, task string) (models.Todo, error) {
	if err := validateTask(task); err != nil {
		return models.Todo{}, err
	}

	t := models.Todo{Task: task}
	err := s.DB.QueryRowContext(ctx, "INSERT INTO todos(task) VALUES(?) RETURNING id", task).Scan(&t.ID)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

// Update replaces the task text of an existing todo.
func (s *SQLiteStore) Update(ctx context.Context, id int, task string) (models.Todo, error) {
	if err := validateTask(task); err != nil {
		return models.Todo{}, err
	}

	res, err := s.DB.ExecContext(ctx, "UPDATE todos SET task = ? WHERE id = ?", task, id)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to update todo %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to update todo %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return models.Todo{}, &NotFoundError{ID: id}
	}

	return models.Todo{ID: id, Task: task}, nil
}

// Delete removes the todo with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

// Close closes the underlying database; an in-memory database is discarded.
func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}
