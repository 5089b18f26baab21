package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model backing the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	Role          string    `bun:"role,notnull,default:'user'"`
	EmailVerified bool      `bun:"email_verified,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Token is the bun model backing the tokens table. Access tokens are
// stateless and never stored; rows exist only for refresh, reset-password
// and verify-email tokens. The raw token string is never persisted, only
// its SHA-256 hash.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	TokenHash   string    `bun:"token_hash,notnull,unique"`
	Type        string    `bun:"type,notnull"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
	Blacklisted bool      `bun:"blacklisted,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
