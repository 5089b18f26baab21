package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoCodec encodes claims as PASETO v4.local tokens
// (symmetric encryption with XChaCha20-Poly1305).
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoCodec(secret []byte) (*PasetoCodec, error) {
	if len(secret) != 32 {
		return nil, fmt.Errorf("paseto codec key must be exactly 32 bytes, got %d", len(secret))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoCodec{symmetricKey: key}, nil
}

func (c *PasetoCodec) Encode(subject uuid.UUID, expiresAt time.Time, kind Type) (string, error) {
	now := time.Now()

	t := paseto.NewToken()
	t.SetSubject(subject.String())
	t.SetIssuedAt(now)
	t.SetExpiration(expiresAt)
	t.SetString("type", string(kind))

	return t.V4Encrypt(c.symmetricKey, nil), nil
}

func (c *PasetoCodec) Decode(tokenStr string) (*Claims, error) {
	parser := paseto.NewParser()

	t, err := parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	sub, err := t.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	kind, err := t.GetString("type")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := t.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:   subject,
		Type:      Type(kind),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
