package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/todoapp-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations. The users_email unique constraint is the authoritative guard
// against duplicate registrations; the application-level existence check is
// only a fast path.
const pgUniqueViolation = "23505"

// UserStore is the credential store the auth service depends on. Lookups
// report absence through the found flag rather than an error.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, bool, error)
}

// PostgresUserStore implements UserStore on a pgx connection pool.
type PostgresUserStore struct {
	db *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgresUserStore.
func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Create inserts a new user with a server-generated id. A duplicate email
// surfaces as a ConflictError regardless of whether the caller pre-checked.
func (s *PostgresUserStore) Create(ctx context.Context, user *User) (*User, error) {
	user.ID = uuid.NewString()
	query := `INSERT INTO users (id, username, email, password, salt)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Salt).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation &&
			strings.Contains(pgErr.ConstraintName, "email") {
			return nil, apperror.NewConflictError("email already registered", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// FindByEmail returns the user with the given email, if any. Emails are
// compared exactly as stored.
func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, bool, error) {
	var user User
	query := `SELECT id, username, email, password, salt, created_at, updated_at
	          FROM users WHERE email = $1`
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Salt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperror.NewDatabaseError("failed to look up user", err)
	}
	return &user, true, nil
}
