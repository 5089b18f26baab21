package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse access level attached to every user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never expose password hash in JSON
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateParams carries the fields needed to insert a user.
type CreateParams struct {
	Email         string
	PasswordHash  string
	Role          Role
	EmailVerified bool
}

// UpdateParams patches a user. Nil fields are left unchanged.
type UpdateParams struct {
	Email         *string
	PasswordHash  *string
	Role          *Role
	EmailVerified *bool
}

// ListParams paginates user listings.
type ListParams struct {
	Limit  int
	Offset int
}
