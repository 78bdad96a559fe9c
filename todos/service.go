package todos

import (
	"context"

	"github.com/user/todoapp-go/apperror"
)

const maxDescriptionLen = 255

// Service holds the business rules for todos: input validation, the low
// priority default, and the not-found mapping for anything the caller does
// not own.
type Service struct {
	store Store
}

// NewService creates a todo Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the caller's todos.
func (s *Service) List(ctx context.Context, ownerID string) ([]Todo, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Create validates the request and inserts a todo for the caller. Priority
// defaults to low when omitted; done always starts false.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateTodoRequest) (*Todo, error) {
	if l := len(req.Description); l < 1 || l > maxDescriptionLen {
		return nil, apperror.NewValidationError("validation failed", "description must be between 1 and 255 characters")
	}
	priority := PriorityLow
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, apperror.NewValidationError("validation failed", "priority must be one of low, medium, high")
		}
		priority = *req.Priority
	}

	todo := &Todo{
		UserID:      ownerID,
		Description: req.Description,
		Priority:    priority,
		Done:        false,
	}
	return s.store.Create(ctx, todo)
}

// Get returns the caller's todo or NotFound.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Todo, error) {
	todo, found, err := s.store.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("todo not found", nil)
	}
	return todo, nil
}

// Update validates and applies a partial update to the caller's todo.
func (s *Service) Update(ctx context.Context, ownerID, id string, req UpdateTodoRequest) (*Todo, error) {
	if req.Description != nil {
		if l := len(*req.Description); l < 1 || l > maxDescriptionLen {
			return nil, apperror.NewValidationError("validation failed", "description must be between 1 and 255 characters")
		}
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, apperror.NewValidationError("validation failed", "priority must be one of low, medium, high")
	}

	todo, found, err := s.store.Update(ctx, id, ownerID, req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("todo not found", nil)
	}
	return todo, nil
}

// Delete removes the caller's todo or reports NotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewNotFoundError("todo not found", nil)
	}
	return nil
}
