package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abefas/GoTodoAPI/database"
	"github.com/abefas/GoTodoAPI/logging"
	"github.com/abefas/GoTodoAPI/models"
	"github.com/abefas/GoTodoAPI/schema"
)

// setupRouter builds a router over a freshly seeded store.
func setupRouter(t *testing.T, store database.Store) http.Handler {
	t.Helper()
	require.NoError(t, database.Seed(context.Background(), store, database.DefaultSeed))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return newRouter(t, store)
}

func newRouter(t *testing.T, store database.Store) http.Handler {
	t.Helper()
	validator, err := schema.New()
	require.NoError(t, err)
	return NewRouter(NewHandlers(store, validator, logging.Discard()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) models.Todo {
	t.Helper()
	var todo models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	return todo
}

func decodeTodos(t *testing.T, rec *httptest.ResponseRecorder) []models.Todo {
	t.Helper()
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	return todos
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// routers runs every test against both store backends.
func routers() map[string]func(t *testing.T) http.Handler {
	return map[string]func(t *testing.T) http.Handler{
		database.BackendMemory: func(t *testing.T) http.Handler {
			return setupRouter(t, database.NewMemoryStore())
		},
		database.BackendSQLite: func(t *testing.T) http.Handler {
			store, err := database.Open(context.Background(), database.Config{Backend: database.BackendSQLite})
			require.NoError(t, err)
			return setupRouter(t, store)
		},
	}
}

func TestGetTodos(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodGet, "/todos/", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			todos := decodeTodos(t, rec)
			require.Len(t, todos, 3)
			assert.Equal(t, models.Todo{ID: 1, Task: "Build an API"}, todos[0])
			assert.Equal(t, models.Todo{ID: 2, Task: "?????"}, todos[1])
			assert.Equal(t, models.Todo{ID: 3, Task: "profit!"}, todos[2])
		})
	}
}

func TestGetTodos_Empty(t *testing.T) {
	h := newRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/todos/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetTodos_RedirectsWithoutSlash(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/todos/", rec.Header().Get("Location"))
}

func TestGetTodo(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodGet, "/todos/1", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, models.Todo{ID: 1, Task: "Build an API"}, decodeTodo(t, rec))

			rec = do(t, h, http.MethodGet, "/todos/999", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Todo 999 doesn't exist", decodeError(t, rec).Message)
		})
	}
}

func TestGetTodo_NonNumericAndOverflowIDs(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/todos/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/todos/99999999999999999999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Todo 99999999999999999999999 doesn't exist", decodeError(t, rec).Message)
}

func TestCreateTodo(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodPost, "/todos/", `{"task": "New Task"}`)
			require.Equal(t, http.StatusCreated, rec.Code)
			created := decodeTodo(t, rec)
			assert.Equal(t, 4, created.ID)
			assert.Equal(t, "New Task", created.Task)
			assert.Equal(t, "/todos/4", rec.Header().Get("Location"))

			rec = do(t, h, http.MethodGet, "/todos/4", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, created, decodeTodo(t, rec))
		})
	}
}

func TestCreateTodo_IgnoresClientID(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	for i, body := range []string{
		`{"id": 100, "task": "X"}`,
		`{"id": 0, "task": "X"}`,
		`{"id": -5, "task": "X"}`,
		`{"id": "one", "task": "X"}`,
	} {
		rec := do(t, h, http.MethodPost, "/todos/", body)
		require.Equal(t, http.StatusCreated, rec.Code, body)
		assert.Equal(t, models.Todo{ID: 4 + i, Task: "X"}, decodeTodo(t, rec), body)
	}
}

func TestCreateTodo_WithoutTrailingSlash(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodPost, "/todos", `{"task": "X"}`)
			require.Equal(t, http.StatusCreated, rec.Code)
			assert.Equal(t, models.Todo{ID: 4, Task: "X"}, decodeTodo(t, rec))

			rec = do(t, h, http.MethodGet, "/todos/", "")
			assert.Len(t, decodeTodos(t, rec), 4)
		})
	}
}

func TestCreateTodo_WithoutTrailingSlash_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t, database.NewMemoryStore()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/todos", "application/json", strings.NewReader(`{"task": "X"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Request.Method)

	resp, err = http.Get(srv.URL + "/todos")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var todos []models.Todo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&todos))
	assert.Len(t, todos, 4)
}

func TestCreateTodo_BodyTooLarge(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	body := `{"task": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := do(t, h, http.MethodPost, "/todos/", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request payload too large", decodeError(t, rec).Message)

	rec = do(t, h, http.MethodPut, "/todos/1", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodGet, "/todos/", "")
	assert.Len(t, decodeTodos(t, rec), 3)
}

func TestCreateTodo_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "missing task", body: `{}`, wantMessage: "Input payload validation failed"},
		{name: "empty task", body: `{"task": ""}`, wantMessage: "Input payload validation failed"},
		{name: "blank task", body: `{"task": "  "}`, wantMessage: "Input payload validation failed"},
		{name: "wrong type", body: `{"task": false}`, wantMessage: "Input payload validation failed"},
		{name: "malformed json", body: `{"task"`, wantMessage: "Invalid request payload"},
		{name: "no body", body: "", wantMessage: "Invalid request payload"},
	}

	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					rec := do(t, h, http.MethodPost, "/todos/", tt.body)
					require.Equal(t, http.StatusBadRequest, rec.Code)
					assert.Equal(t, tt.wantMessage, decodeError(t, rec).Message)

					rec = do(t, h, http.MethodGet, "/todos/", "")
					assert.Len(t, decodeTodos(t, rec), 3)
				})
			}
		})
	}
}

func TestUpdateTodo(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodPut, "/todos/1", `{"task": "Updated Task"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, models.Todo{ID: 1, Task: "Updated Task"}, decodeTodo(t, rec))

			rec = do(t, h, http.MethodGet, "/todos/1", "")
			assert.Equal(t, "Updated Task", decodeTodo(t, rec).Task)

			rec = do(t, h, http.MethodPut, "/todos/999", `{"task": "Nonexistent Task"}`)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestUpdateTodo_Invalid(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodPut, "/todos/1", `{}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			rec = do(t, h, http.MethodPut, "/todos/999", `{}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			rec = do(t, h, http.MethodGet, "/todos/1", "")
			assert.Equal(t, "Build an API", decodeTodo(t, rec).Task)
		})
	}
}

func TestDeleteTodo(t *testing.T) {
	for name, build := range routers() {
		t.Run(name, func(t *testing.T) {
			h := build(t)

			rec := do(t, h, http.MethodDelete, "/todos/1", "")
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())

			rec = do(t, h, http.MethodGet, "/todos/1", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(t, h, http.MethodDelete, "/todos/1", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(t, h, http.MethodDelete, "/todos/999", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestDeleteThenCreate_DoesNotReuseID(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/todos/3", "").Code)

	rec := do(t, h, http.MethodPost, "/todos/", `{"task": "again"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 4, decodeTodo(t, rec).ID)
}

func TestMethodNotAllowed(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodPatch, "/todos/1", `{"task": "x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DELETE, GET, PUT", rec.Header().Get("Allow"))

	rec = do(t, h, http.MethodDelete, "/todos/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = do(t, h, http.MethodPut, "/todos", `{"task": "x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

func TestNotFoundRoute(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetSwagger(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/swagger.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, doc["definitions"], "Todo")
}

func TestHealth(t *testing.T) {
	h := setupRouter(t, database.NewMemoryStore())

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (s failingStore) List(context.Context) ([]models.Todo, error) { return nil, s.err }
func (s failingStore) Get(context.Context, int) (models.Todo, error) {
	return models.Todo{}, s.err
}
func (s failingStore) Create(context.Context, string) (models.Todo, error) {
	return models.Todo{}, s.err
}
func (s failingStore) Update(context.Context, int, string) (models.Todo, error) {
	return models.Todo{}, s.err
}
func (s failingStore) Delete(context.Context, int) error { return s.err }
func (s failingStore) Close() error                      { return nil }

func TestStoreFailures(t *testing.T) {
	h := newRouter(t, failingStore{err: errors.New("disk on fire")})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/todos/", ""},
		{http.MethodGet, "/todos/1", ""},
		{http.MethodPost, "/todos/", `{"task": "x"}`},
		{http.MethodPut, "/todos/1", `{"task": "x"}`},
		{http.MethodDelete, "/todos/1", ""},
	} {
		rec := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Internal server error", decodeError(t, rec).Message)
	}
}

func TestStoreValidationError(t *testing.T) {
	h := newRouter(t, failingStore{err: database.ErrTaskRequired})

	rec := do(t, h, http.MethodPost, "/todos/", `{"task": "x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "The 'task' field is required.", resp.Message)
	assert.Equal(t, map[string]string{"task": "The 'task' field is required."}, resp.Errors)
}

// corruptStore hands back records that violate the response schema.
type corruptStore struct {
	failingStore
}

func (corruptStore) Get(_ context.Context, id int) (models.Todo, error) {
	return models.Todo{ID: id}, nil
}

func TestResponseSchemaViolation(t *testing.T) {
	h := newRouter(t, corruptStore{})

	rec := do(t, h, http.MethodGet, "/todos/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
