// Package auth is responsible for authentication and authorization logic:
// user registration, login, stateless session cookies and the CSRF guard.
package auth

import "time"

// User represents a user row as stored in the database. The credential
// fields never reach a client directly; every handler serializes the
// Public projection instead.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns the client-facing projection of the user, with the
// password hash and salt stripped.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
