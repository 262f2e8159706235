package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/abefas/GoTodoAPI/database"
	"github.com/abefas/GoTodoAPI/middleware"
	"github.com/abefas/GoTodoAPI/models"
	"github.com/abefas/GoTodoAPI/schema"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

// Handlers struct holds the store, allowing methods to share it.
type Handlers struct {
	Store  database.Store
	Schema *schema.Validator
	Logger *log.Logger
}

// NewHandlers is a constructor for the Handlers struct.
func NewHandlers(store database.Store, validator *schema.Validator, logger *log.Logger) *Handlers {
	return &Handlers{Store: store, Schema: validator, Logger: logger}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// respondWithJSON is a helper function to format and send JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Message: message})
}

// respondWithTodo validates a record against the response schema before sending it.
func (h *Handlers) respondWithTodo(w http.ResponseWriter, r *http.Request, code int, todo models.Todo) {
	if err := h.Schema.ValidateTodo(todo); err != nil {
		h.internalError(w, r, "response failed schema validation", err)
		return
	}
	respondWithJSON(w, code, todo)
}

// storeError maps a Store failure onto a status code.
func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrValidation):
		resp := errorResponse{Message: err.Error()}
		var ve *database.ValidationError
		if errors.As(err, &ve) {
			resp.Errors = map[string]string{ve.Field: ve.Message}
		}
		respondWithJSON(w, http.StatusBadRequest, resp)
	default:
		h.internalError(w, r, "store operation failed", err)
	}
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Logger.Error(msg, "error", err, "method", r.Method, "path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()))
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeInput reads and validates a {task} payload. It writes the 400 or 413
// response itself and reports whether the caller should continue.
func (h *Handlers) decodeInput(w http.ResponseWriter, r *http.Request) (models.TodoInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	input, err := h.Schema.DecodeTodoInput(r.Body)
	if err == nil {
		return input, true
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Message: ve.Message, Errors: ve.Errors})
		return models.TodoInput{}, false
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondWithError(w, http.StatusRequestEntityTooLarge, "Request payload too large")
		return models.TodoInput{}, false
	}
	h.Logger.Debug("rejected request payload", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	respondWithError(w, http.StatusBadRequest, "Invalid request payload")
	return models.TodoInput{}, false
}

// todoID reads the {id} path variable. The route only matches digits, so a
// failure here means the number overflowed int and cannot name a record.
func todoID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, false
	}
	return id, true
}

func respondTodoNotFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "Todo "+mux.Vars(r)["id"]+" doesn't exist")
}

// GetTodos lists all todos.
func (h *Handlers) GetTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.Store.List(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if err := h.Schema.ValidateTodos(todos); err != nil {
		h.internalError(w, r, "response failed schema validation", err)
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

// CreateTodo creates a new todo.
func (h *Handlers) CreateTodo(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	todo, err := h.Store.Create(r.Context(), input.Task)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Logger.Debug("todo created", "id", todo.ID, "request_id", middleware.GetRequestID(r.Context()))
	w.Header().Set("Location", "/todos/"+strconv.Itoa(todo.ID))
	h.respondWithTodo(w, r, http.StatusCreated, todo)
}

// GetTodo retrieves a single todo by its ID.
func (h *Handlers) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		respondTodoNotFound(w, r)
		return
	}

	todo, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.respondWithTodo(w, r, http.StatusOK, todo)
}

// UpdateTodo replaces the task of an existing todo.
func (h *Handlers) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		respondTodoNotFound(w, r)
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	todo, err := h.Store.Update(r.Context(), id, input.Task)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Logger.Debug("todo updated", "id", todo.ID, "request_id", middleware.GetRequestID(r.Context()))
	h.respondWithTodo(w, r, http.StatusOK, todo)
}

// DeleteTodo deletes a todo by its ID.
func (h *Handlers) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		respondTodoNotFound(w, r)
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.Logger.Debug("todo deleted", "id", id, "request_id", middleware.GetRequestID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// GetSwagger serves the API description.
func (h *Handlers) GetSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := schema.Document()
	if err != nil {
		h.internalError(w, r, "failed to build swagger document", err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
