package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/todoapp-go/apperror"
)

// Store is the persistence interface for todos. All lookups are scoped by
// the owner id in the query itself, so a cross-owner id simply comes back
// as not found.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Todo, error)
	Create(ctx context.Context, todo *Todo) (*Todo, error)
	FindByID(ctx context.Context, id, ownerID string) (*Todo, bool, error)
	Update(ctx context.Context, id, ownerID string, req UpdateTodoRequest) (*Todo, bool, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const todoColumns = `id, user_id, description, priority, done, created_at, updated_at`

// ListByOwner returns all todos belonging to ownerID, oldest first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at`
	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list todos", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Priority, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan todo", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list todos", err)
	}
	return todos, nil
}

// Create inserts a todo with a server-generated id.
func (s *PostgresStore) Create(ctx context.Context, todo *Todo) (*Todo, error) {
	todo.ID = uuid.NewString()
	query := `INSERT INTO todos (id, user_id, description, priority, done)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, query, todo.ID, todo.UserID, todo.Description, todo.Priority, todo.Done).
		Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create todo", err)
	}
	return todo, nil
}

// FindByID returns the todo with the given id if ownerID owns it.
func (s *PostgresStore) FindByID(ctx context.Context, id, ownerID string) (*Todo, bool, error) {
	var t Todo
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	err := s.db.QueryRow(ctx, query, id, ownerID).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Priority, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperror.NewDatabaseError("failed to get todo", err)
	}
	return &t, true, nil
}

// Update applies the non-nil fields of req to the owner's todo and bumps
// updated_at. The SET clause is built from whichever fields are present.
func (s *PostgresStore) Update(ctx context.Context, id, ownerID string, req UpdateTodoRequest) (*Todo, bool, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argID := 1

	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *req.Description)
		argID++
	}
	if req.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", argID))
		args = append(args, *req.Priority)
		argID++
	}
	if req.Done != nil {
		setClauses = append(setClauses, fmt.Sprintf("done = $%d", argID))
		args = append(args, *req.Done)
		argID++
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE todos SET %s WHERE id = $%d AND user_id = $%d RETURNING `+todoColumns,
		strings.Join(setClauses, ", "), argID, argID+1)

	var t Todo
	err := s.db.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Priority, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperror.NewDatabaseError("failed to update todo", err)
	}
	return &t, true, nil
}

// Delete removes the owner's todo and reports whether a row was deleted.
func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to delete todo", err)
	}
	return tag.RowsAffected() > 0, nil
}
