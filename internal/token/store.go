package token

import (
	"context"

	"github.com/google/uuid"
)

// Query narrows token lookups and bulk deletes. Zero-value fields are
// ignored; uuid.Nil means "any user".
type Query struct {
	TokenHash          string
	Type               Type
	UserID             uuid.UUID
	ExcludeBlacklisted bool
}

// Store persists issued tokens. Implementations back onto Postgres
// (Repository) or Redis (RedisStore); both are safe for concurrent use and
// delegate consistency to the underlying store.
type Store interface {
	Create(ctx context.Context, t *Token) error
	// FindOne returns ErrTokenNotFound when no record matches.
	FindOne(ctx context.Context, q Query) (*Token, error)
	Delete(ctx context.Context, t *Token) error
	// DeleteMany removes every matching record and reports how many went.
	DeleteMany(ctx context.Context, q Query) (int64, error)
}
