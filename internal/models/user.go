package models

import "time"

// Directory roles reported in login responses.
const (
	RoleCR      = "CR"
	RoleStudent = "Student"
)

// User is a login account. Username holds the student's university ID (or the
// email when no ID was supplied at registration).
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSummary is the account block returned after registration.
type UserSummary struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}
