package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

var (
	// ErrUnauthenticated covers every failure to establish a principal:
	// missing or undecodable bearer token, wrong token type, unknown subject.
	ErrUnauthenticated = errors.New("please authenticate")
	// ErrForbidden means the principal is valid but lacks the required
	// permissions and no self-access override applies.
	ErrForbidden = errors.New("forbidden")
)

// PrincipalStore resolves the subject of an access token to a user record.
// user.Repository satisfies it.
type PrincipalStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Authorizer is the authorization decision engine: given a bearer token and
// a required permission set it either resolves the principal or denies.
// It is stateless apart from one store read per call and safe for
// concurrent use.
type Authorizer struct {
	codec       token.Codec
	principals  PrincipalStore
	permissions Permissions
}

func NewAuthorizer(codec token.Codec, principals PrincipalStore, permissions Permissions) *Authorizer {
	return &Authorizer{
		codec:       codec,
		principals:  principals,
		permissions: permissions,
	}
}

// Authorize decides allow/deny for a bearer token and required permission
// set. selfID, when non-empty, is the owner of the targeted resource: a
// principal acting on its own resource passes even without the required
// permissions.
//
// Only ACCESS tokens are accepted as bearer credentials; refresh and
// single-use tokens are rejected before the principal is ever resolved.
func (a *Authorizer) Authorize(ctx context.Context, bearerToken string, required []string, selfID string) (*user.User, error) {
	if bearerToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := a.codec.Decode(bearerToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.Type != token.TypeAccess {
		return nil, ErrUnauthenticated
	}

	principal, err := a.principals.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	if len(required) == 0 {
		return principal, nil
	}

	if a.permissions.HasAll(principal.Role, required) {
		return principal, nil
	}

	if selfID != "" && selfID == principal.ID.String() {
		return principal, nil
	}

	return nil, ErrForbidden
}
