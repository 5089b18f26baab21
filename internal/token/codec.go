package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Claims is the decoded claim set carried by every token: who it was issued
// to, what kind it is and its validity window.
type Claims struct {
	Subject   uuid.UUID
	Type      Type
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec encodes and decodes signed, time-bound claim sets. Implementations
// are pure: no I/O, no shared mutable state.
//
// Decode fails with ErrInvalidToken when the token cannot be authenticated
// and ErrExpiredToken when it is past its expiry.
type Codec interface {
	Encode(subject uuid.UUID, expiresAt time.Time, kind Type) (string, error)
	Decode(tokenStr string) (*Claims, error)
}

// NewCodec builds the configured codec implementation.
func NewCodec(name string, secret []byte) (Codec, error) {
	switch name {
	case "paseto":
		return NewPasetoCodec(secret)
	case "jwt":
		return NewJWTCodec(secret)
	default:
		return nil, fmt.Errorf("unknown token codec %q", name)
	}
}
