package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"go-auth-api/internal/password"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("invalid role")
)

const maxEmailLen = 254

// NormalizeEmail lowercases and trims an email address. Uniqueness is
// case-insensitive, so every path that touches the store goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks presence, length and shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLen {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}

// ValidatePassword checks presence and minimum length.
func ValidatePassword(pw string) error {
	if pw == "" {
		return ErrPasswordRequired
	}
	if len(pw) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// Store is the persistence boundary for users.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, params ListParams) ([]*User, int, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdateParams) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service handles user management business logic
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create adds a new user (admin operation).
func (s *Service) Create(ctx context.Context, email, plainPassword string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(plainPassword); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.Create(ctx, CreateParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// List returns a page of users. Limit is clamped to [1, 100].
func (s *Service) List(ctx context.Context, params ListParams) ([]*User, int, error) {
	if params.Limit <= 0 {
		params.Limit = 10
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.store.List(ctx, params)
}

// UpdateInput is the external patch shape; the plain-text password is hashed
// before it reaches the store.
type UpdateInput struct {
	Email    *string
	Password *string
	Role     *Role
}

// Update patches a user.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*User, error) {
	var patch UpdateParams

	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if input.Password != nil {
		if err := ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		passwordHash, err := password.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &passwordHash
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		patch.Role = input.Role
	}

	return s.store.Update(ctx, id, patch)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
