// Package schema holds the Todo JSON Schema shared by request parsing and
// response encoding.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/abefas/GoTodoAPI/models"
)

// SchemaURL identifies the embedded schema document.
const SchemaURL = "https://todoapi.local/schema/todo.json"

//go:embed todo.schema.json
var rawSchema []byte

// ErrMalformed is returned when a request body is not valid JSON.
var ErrMalformed = errors.New("invalid request payload")

// ValidationError lists the schema violations of a payload, keyed by field path.
type ValidationError struct {
	Message string
	Errors  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Errors[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Validator validates Todo payloads in both directions.
type Validator struct {
	input  *jsonschema.Schema
	output *jsonschema.Schema
	list   *jsonschema.Schema
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource(SchemaURL, bytes.NewReader(rawSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	v := &Validator{}
	for _, def := range []struct {
		name string
		dst  **jsonschema.Schema
	}{
		{"TodoInput", &v.input},
		{"TodoOutput", &v.output},
		{"TodoList", &v.list},
	} {
		s, err := compiler.Compile(SchemaURL + "#/$defs/" + def.name)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", def.name, err)
		}
		*def.dst = s
	}
	return v, nil
}

// DecodeTodoInput reads a request body and validates it against TodoInput.
// Fields other than task are ignored.
func (v *Validator) DecodeTodoInput(r io.Reader) (models.TodoInput, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return models.TodoInput{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if dec.More() {
		return models.TodoInput{}, fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}

	if err := v.input.Validate(payload); err != nil {
		return models.TodoInput{}, toValidationError("Input payload validation failed", err)
	}

	// validated above: payload is an object with a string task
	task, _ := payload.(map[string]any)["task"].(string)
	return models.TodoInput{Task: task}, nil
}

// ValidateTodo checks a single response record.
func (v *Validator) ValidateTodo(todo models.Todo) error {
	return validateValue(v.output, todo)
}

// ValidateTodos checks a list response.
func (v *Validator) ValidateTodos(todos []models.Todo) error {
	return validateValue(v.list, todos)
}

func validateValue(s *jsonschema.Schema, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		return toValidationError("Response validation failed", err)
	}
	return nil
}

// toValidationError flattens the jsonschema cause tree into field messages.
func toValidationError(message string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: message, Errors: map[string]string{"payload": err.Error()}}
	}

	result := &ValidationError{Message: message, Errors: make(map[string]string)}
	collectSchemaErrors(result, ve)
	return result
}

func collectSchemaErrors(result *ValidationError, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		path := jsonPointerToPath(err.InstanceLocation)
		if _, exists := result.Errors[path]; !exists {
			result.Errors[path] = err.Message
		}
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/items/0/task" into "items.0.task".
func jsonPointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "payload"
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}
