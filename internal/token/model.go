package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type discriminates the four token kinds. Access tokens are stateless;
// the other kinds are persisted and consumed exactly once.
type Type string

const (
	TypeAccess        Type = "access"
	TypeRefresh       Type = "refresh"
	TypeResetPassword Type = "resetPassword"
	TypeVerifyEmail   Type = "verifyEmail"
)

var (
	// ErrInvalidToken is returned by a Codec when the token string cannot be
	// authenticated or parsed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned by a Codec when the token is well-formed
	// but past its expiry.
	ErrExpiredToken = errors.New("token has expired")

	// ErrTokenNotFound covers every verification failure of a persisted
	// token: bad signature, expiry and a missing or blacklisted record are
	// deliberately indistinguishable to the caller.
	ErrTokenNotFound = errors.New("token not found")
	// ErrAuthenticationRequired is returned when refresh rotation fails and
	// the client has to log in again.
	ErrAuthenticationRequired = errors.New("please authenticate")
)

// Token is a persisted token record. The raw string never touches storage;
// lookups go through its SHA-256 hash.
type Token struct {
	ID          uuid.UUID
	TokenHash   string
	Type        Type
	UserID      uuid.UUID
	ExpiresAt   time.Time
	Blacklisted bool
	CreatedAt   time.Time
}

// TokenDetail pairs a token string with its absolute expiry.
type TokenDetail struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthTokens is the access/refresh pair returned by login and refresh.
type AuthTokens struct {
	Access  TokenDetail `json:"access"`
	Refresh TokenDetail `json:"refresh"`
}

// HashToken returns the hex-encoded SHA-256 of a token string, the form in
// which every persisted token is stored and looked up.
func HashToken(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}
