package users

import (
	"context"
	"strings"

	"github.com/user/todoapp-go/apperror"
	"github.com/user/todoapp-go/auth"
)

// Service holds the business rules for user reads and profile writes.
// Everything it returns is already sanitized: handlers only ever see the
// public projection.
type Service struct {
	store Store
}

// NewService creates a user Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all users as public projections.
func (s *Service) List(ctx context.Context) ([]auth.PublicUser, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]auth.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}

// Get returns one user as a public projection, or NotFound.
func (s *Service) Get(ctx context.Context, id string) (*auth.PublicUser, error) {
	user, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	pub := user.Public()
	return &pub, nil
}

// Update validates and applies a partial profile update.
func (s *Service) Update(ctx context.Context, id string, req UpdateUserRequest) (*auth.PublicUser, error) {
	if req.Username == nil && req.Email == nil {
		return nil, apperror.NewValidationError("validation failed", "no fields provided for update")
	}
	if req.Username != nil {
		if l := len(*req.Username); l < 3 || l > 50 {
			return nil, apperror.NewValidationError("validation failed", "username must be between 3 and 50 characters")
		}
	}
	if req.Email != nil && !validEmail(*req.Email) {
		return nil, apperror.NewValidationError("validation failed", "email must be a valid email address")
	}

	user, found, err := s.store.Update(ctx, id, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	pub := user.Public()
	return &pub, nil
}

// Delete removes the user; owned todos are cascade-deleted by the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewNotFoundError("user not found", nil)
	}
	return nil
}

// validEmail is a minimal sanity check, not full RFC validation.
func validEmail(e string) bool {
	if e == "" || len(e) > 255 {
		return false
	}
	parts := strings.Split(e, "@")
	if len(parts) != 2 {
		return false
	}
	return parts[0] != "" && parts[1] != "" && strings.Contains(parts[1], ".")
}
