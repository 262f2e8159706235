package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// API metadata published in the Swagger document.
const (
	APITitle       = "TodoMVC API"
	APIVersion     = "1.0"
	APIDescription = "A simple TodoMVC API"
)

// Document builds the Swagger 2.0 description of the HTTP surface. The Todo
// definition is taken from the same schema the validator compiles.
func Document() (map[string]any, error) {
	var raw struct {
		Defs map[string]map[string]any `json:"$defs"`
	}
	if err := json.Unmarshal(rawSchema, &raw); err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}
	def, ok := raw.Defs["Todo"]
	if !ok {
		return nil, fmt.Errorf("embedded schema has no Todo definition")
	}
	todo, ok := inlineDefs(def, raw.Defs).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("embedded Todo definition is not an object")
	}

	todoRef := map[string]any{"$ref": "#/definitions/Todo"}
	payload := []any{map[string]any{
		"name": "payload", "in": "body", "required": true, "schema": todoRef,
	}}
	idParam := map[string]any{
		"name": "id", "in": "path", "required": true, "type": "integer",
		"description": "The task identifier",
	}
	notFound := map[string]any{"description": "Todo not found"}
	invalid := map[string]any{"description": "Validation error"}

	return map[string]any{
		"swagger":  "2.0",
		"basePath": "/",
		"info": map[string]any{
			"title":       APITitle,
			"version":     APIVersion,
			"description": APIDescription,
		},
		"produces": []string{"application/json"},
		"consumes": []string{"application/json"},
		"tags": []any{
			map[string]any{"name": "todos", "description": "TODO operations"},
		},
		"paths": map[string]any{
			"/todos/": map[string]any{
				"get": map[string]any{
					"operationId": "list_todos",
					"summary":     "List all tasks",
					"tags":        []string{"todos"},
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Success",
							"schema":      map[string]any{"type": "array", "items": todoRef},
						},
					},
				},
				"post": map[string]any{
					"operationId": "create_todo",
					"summary":     "Create a new task",
					"tags":        []string{"todos"},
					"parameters":  payload,
					"responses": map[string]any{
						"201": map[string]any{"description": "Success", "schema": todoRef},
						"400": invalid,
					},
				},
			},
			"/todos/{id}": map[string]any{
				"parameters": []any{idParam},
				"get": map[string]any{
					"operationId": "get_todo",
					"summary":     "Fetch a given resource",
					"tags":        []string{"todos"},
					"responses": map[string]any{
						"200": map[string]any{"description": "Success", "schema": todoRef},
						"404": notFound,
					},
				},
				"put": map[string]any{
					"operationId": "put_todo",
					"summary":     "Update a task given its identifier",
					"tags":        []string{"todos"},
					"parameters":  payload,
					"responses": map[string]any{
						"200": map[string]any{"description": "Success", "schema": todoRef},
						"400": invalid,
						"404": notFound,
					},
				},
				"delete": map[string]any{
					"operationId": "delete_todo",
					"summary":     "Delete a task given its identifier",
					"tags":        []string{"todos"},
					"responses": map[string]any{
						"204": map[string]any{"description": "Todo deleted"},
						"404": notFound,
					},
				},
			},
		},
		"definitions": map[string]any{
			"Todo": todo,
		},
	}, nil
}

// inlineDefs replaces local "#/$defs/<name>" references with the referenced
// definition, since Swagger 2.0 has no $defs section.
func inlineDefs(node any, defs map[string]map[string]any) any {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok && len(v) == 1 {
			if target, found := defs[strings.TrimPrefix(ref, "#/$defs/")]; found && strings.HasPrefix(ref, "#/$defs/") {
				return inlineDefs(target, defs)
			}
		}
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = inlineDefs(child, defs)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = inlineDefs(child, defs)
		}
		return out
	default:
		return v
	}
}
