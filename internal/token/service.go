package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Durations holds the configured lifetime of each token kind.
type Durations struct {
	Access        time.Duration
	Refresh       time.Duration
	ResetPassword time.Duration
	VerifyEmail   time.Duration
}

// Service is the token lifecycle manager: it issues, verifies, rotates and
// revokes tokens. Access tokens are encoded only; refresh, reset-password
// and verify-email tokens are additionally persisted and consumed exactly
// once. The service holds no mutable state and is safe for concurrent use.
type Service struct {
	store     Store
	codec     Codec
	durations Durations
}

func NewService(store Store, codec Codec, durations Durations) *Service {
	return &Service{
		store:     store,
		codec:     codec,
		durations: durations,
	}
}

// IssueAuthTokens encodes a short-lived access token and a persisted
// long-lived refresh token for the user. Existing refresh tokens stay valid;
// concurrent sessions are allowed.
func (s *Service) IssueAuthTokens(ctx context.Context, userID uuid.UUID) (*AuthTokens, error) {
	now := time.Now()

	accessExpires := now.Add(s.durations.Access)
	accessToken, err := s.codec.Encode(userID, accessExpires, TypeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshExpires := now.Add(s.durations.Refresh)
	refreshToken, err := s.issuePersisted(ctx, userID, TypeRefresh, refreshExpires)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{
		Access:  TokenDetail{Token: accessToken, Expires: accessExpires},
		Refresh: TokenDetail{Token: refreshToken, Expires: refreshExpires},
	}, nil
}

// IssueResetPasswordToken encodes and persists a single-use reset token.
// Outstanding reset tokens for the user are left untouched; each expires on
// its own schedule.
func (s *Service) IssueResetPasswordToken(ctx context.Context, userID uuid.UUID) (string, error) {
	expires := time.Now().Add(s.durations.ResetPassword)
	return s.issuePersisted(ctx, userID, TypeResetPassword, expires)
}

// IssueVerifyEmailToken encodes and persists a single-use verification token.
func (s *Service) IssueVerifyEmailToken(ctx context.Context, userID uuid.UUID) (string, error) {
	expires := time.Now().Add(s.durations.VerifyEmail)
	return s.issuePersisted(ctx, userID, TypeVerifyEmail, expires)
}

func (s *Service) issuePersisted(ctx context.Context, userID uuid.UUID, kind Type, expiresAt time.Time) (string, error) {
	tokenStr, err := s.codec.Encode(userID, expiresAt, kind)
	if err != nil {
		return "", fmt.Errorf("failed to create %s token: %w", kind, err)
	}

	record := &Token{
		TokenHash: HashToken(tokenStr),
		Type:      kind,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := s.store.Create(ctx, record); err != nil {
		return "", err
	}

	return tokenStr, nil
}

// Verify checks a persisted token of the expected kind and returns its
// record. It never deletes: consumption is a separate, explicit Delete call
// so "check validity" and "invalidate" stay decoupled.
//
// Every failure mode (bad signature, expiry, type mismatch, missing or
// blacklisted record) surfaces as ErrTokenNotFound so callers cannot tell
// which check failed.
func (s *Service) Verify(ctx context.Context, tokenStr string, kind Type) (*Token, error) {
	claims, err := s.codec.Decode(tokenStr)
	if err != nil {
		return nil, ErrTokenNotFound
	}
	if claims.Type != kind {
		return nil, ErrTokenNotFound
	}

	record, err := s.store.FindOne(ctx, Query{
		TokenHash:          HashToken(tokenStr),
		Type:               kind,
		UserID:             claims.Subject,
		ExcludeBlacklisted: true,
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	return record, nil
}

// Delete consumes a verified token record.
func (s *Service) Delete(ctx context.Context, record *Token) error {
	return s.store.Delete(ctx, record)
}

// DeleteAllForUser removes every token of the given kind for the user, e.g.
// purging refresh tokens after a password reset.
func (s *Service) DeleteAllForUser(ctx context.Context, userID uuid.UUID, kind Type) (int64, error) {
	return s.store.DeleteMany(ctx, Query{UserID: userID, Type: kind})
}

// RotateRefreshTokens trades a valid refresh token for a fresh access/refresh
// pair. The old token is deleted before the new pair is issued; if issuance
// then fails the user has to authenticate again, which beats leaving a stale
// valid token behind. Two concurrent rotations of the same token race on the
// delete and the loser fails here.
func (s *Service) RotateRefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	record, err := s.Verify(ctx, refreshToken, TypeRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, err
	}

	if err := s.store.Delete(ctx, record); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, err
	}

	tokens, err := s.IssueAuthTokens(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// Revoke deletes the persisted record of a refresh token (logout). Unlike
// Verify it does not decode the string first: a record that exists is
// removable even if the codec would already reject it.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	record, err := s.store.FindOne(ctx, Query{
		TokenHash:          HashToken(refreshToken),
		Type:               TypeRefresh,
		ExcludeBlacklisted: true,
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	return s.store.Delete(ctx, record)
}
