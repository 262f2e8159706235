package models

// Todo represents a single item in the to-do list.
type Todo struct {
	ID   int    `json:"id"`
	Task string `json:"task"`
}

// TodoInput defines the structure for create and update requests.
// The id is assigned by the store and never read from a request body.
type TodoInput struct {
	Task string `json:"task"`
}
