package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTCodec encodes claims as HS256-signed JWTs. The token kind travels in a
// private "type" claim next to the registered claim set.
type JWTCodec struct {
	secret []byte
}

type jwtClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt codec secret must not be empty")
	}
	return &JWTCodec{secret: secret}, nil
}

func (c *JWTCodec) Encode(subject uuid.UUID, expiresAt time.Time, kind Type) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		Type: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (c *JWTCodec) Decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{},
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:   subject,
		Type:      Type(claims.Type),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
