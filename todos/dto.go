package todos

// CreateTodoRequest is the payload for creating a todo. Priority is
// optional and defaults to low.
type CreateTodoRequest struct {
	Description string    `json:"description"`
	Priority    *Priority `json:"priority,omitempty"`
}

// UpdateTodoRequest is the payload for a partial todo update. Nil fields
// are left untouched.
type UpdateTodoRequest struct {
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Done        *bool     `json:"done,omitempty"`
}
