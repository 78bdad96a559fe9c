package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/todoapp-go/apperror"
)

// bcryptCost matches the adaptive work factor the credentials were
// originally hashed with. Hashing is intentionally slow and CPU-bound.
const bcryptCost = 10

// Validation bounds for registration input.
const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// AuthService implements registration and login on top of a UserStore.
type AuthService struct {
	store UserStore
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(store UserStore) *AuthService {
	return &AuthService{store: store}
}

// Register validates the request, hashes the password and creates the user.
// The email-existence pre-check closes the common case early; the unique
// constraint in the store remains the correctness boundary for concurrent
// duplicate registrations.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	if _, found, err := s.store.FindByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if found {
		return nil, apperror.NewConflictError("email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}
	salt, err := newSalt()
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate salt", err)
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Salt:         salt,
	}
	return s.store.Create(ctx, user)
}

// Login verifies the credentials and returns the user. A missing account
// and a wrong password produce the same error so the response does not
// reveal which one it was.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.NewValidationError("validation failed", "email and password are required")
	}

	user, found, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewBadRequestError("invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.NewBadRequestError("invalid credentials", nil)
	}
	return user, nil
}

func validateRegister(req RegisterRequest) error {
	var problems []string
	if l := len(req.Username); l < minUsernameLen || l > maxUsernameLen {
		problems = append(problems, "username must be between 3 and 50 characters")
	}
	if !validEmail(req.Email) {
		problems = append(problems, "email must be a valid email address")
	}
	if len(req.Password) < minPasswordLen {
		problems = append(problems, "password must be at least 6 characters")
	}
	if len(problems) > 0 {
		return apperror.NewValidationError("validation failed", strings.Join(problems, "; "))
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

// newSalt produces the value stored in the users.salt column. bcrypt embeds
// its own salt in the hash; the column is kept for schema parity and must
// never be serialized.
func newSalt() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
