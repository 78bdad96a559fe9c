// Package users implements the user-facing read endpoints and the
// owner-gated profile update and delete operations.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/todoapp-go/apperror"
	"github.com/user/todoapp-go/auth"
)

const pgUniqueViolation = "23505"

// Store is the persistence interface for user reads and profile writes.
type Store interface {
	List(ctx context.Context) ([]auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, bool, error)
	Update(ctx context.Context, id string, username, email *string) (*auth.User, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password, salt, created_at, updated_at`

// List returns all users, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	defer rows.Close()

	users := []auth.User{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	return users, nil
}

// FindByID returns the user with the given id, if any.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*auth.User, bool, error) {
	var u auth.User
	err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperror.NewDatabaseError("failed to get user", err)
	}
	return &u, true, nil
}

// Update applies the non-nil fields and bumps updated_at. A duplicate email
// surfaces as a ConflictError from the unique constraint.
func (s *PostgresStore) Update(ctx context.Context, id string, username, email *string) (*auth.User, bool, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argID := 1

	if username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argID))
		args = append(args, *username)
		argID++
	}
	if email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *email)
		argID++
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(setClauses, ", "), argID)

	var u auth.User
	err := s.db.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation &&
			strings.Contains(pgErr.ConstraintName, "email") {
			return nil, false, apperror.NewConflictError("email already registered", nil)
		}
		return nil, false, apperror.NewDatabaseError("failed to update user", err)
	}
	return &u, true, nil
}

// Delete removes the user; the todos foreign key cascades, so the user's
// todos go with it in the same statement.
func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to delete user", err)
	}
	return tag.RowsAffected() > 0, nil
}
