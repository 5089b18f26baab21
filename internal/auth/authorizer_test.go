package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakePrincipalStore struct {
	users map[uuid.UUID]*user.User
}

func (s *fakePrincipalStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func newAuthorizerFixture(t *testing.T) (*Authorizer, token.Codec, *user.User, *user.User) {
	t.Helper()

	codec, err := token.NewCodec("paseto", testSecret)
	require.NoError(t, err)

	admin := &user.User{ID: uuid.New(), Email: "admin@example.com", Role: user.RoleAdmin}
	regular := &user.User{ID: uuid.New(), Email: "user@example.com", Role: user.RoleUser}

	store := &fakePrincipalStore{users: map[uuid.UUID]*user.User{
		admin.ID:   admin,
		regular.ID: regular,
	}}

	return NewAuthorizer(codec, store, DefaultPermissions()), codec, admin, regular
}

func accessToken(t *testing.T, codec token.Codec, subject uuid.UUID) string {
	t.Helper()

	tokenStr, err := codec.Encode(subject, time.Now().Add(30*time.Minute), token.TypeAccess)
	require.NoError(t, err)
	return tokenStr
}

func TestAuthorizeEstablishesPrincipal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorizer, codec, _, regular := newAuthorizerFixture(t)

	principal, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), nil, "")
	require.NoError(t, err)
	require.Equal(t, regular.ID, principal.ID)
	require.Equal(t, regular.Email, principal.Email)
}

func TestAuthorizeRejectsMissingToken(t *testing.T) {
	t.Parallel()

	authorizer, _, _, _ := newAuthorizerFixture(t)

	_, err := authorizer.Authorize(context.Background(), "", nil, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeRejectsUndecodableToken(t *testing.T) {
	t.Parallel()

	authorizer, _, _, _ := newAuthorizerFixture(t)

	_, err := authorizer.Authorize(context.Background(), "garbage", nil, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeRejectsNonAccessTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorizer, codec, _, regular := newAuthorizerFixture(t)

	for _, kind := range []token.Type{token.TypeRefresh, token.TypeResetPassword, token.TypeVerifyEmail} {
		tokenStr, err := codec.Encode(regular.ID, time.Now().Add(time.Hour), kind)
		require.NoError(t, err)

		_, err = authorizer.Authorize(ctx, tokenStr, nil, "")
		require.ErrorIs(t, err, ErrUnauthenticated, "kind %s must not authenticate", kind)
	}
}

func TestAuthorizeRejectsUnknownSubject(t *testing.T) {
	t.Parallel()

	authorizer, codec, _, _ := newAuthorizerFixture(t)

	_, err := authorizer.Authorize(context.Background(), accessToken(t, codec, uuid.New()), nil, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizePermissionChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorizer, codec, admin, regular := newAuthorizerFixture(t)

	t.Run("admin holds the admin permissions", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, admin.ID), []string{PermissionListUsers, PermissionManageUsers}, "")
		require.NoError(t, err)
	})

	t.Run("regular user lacks admin permissions", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), []string{PermissionManageUsers}, "")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty requirement only needs authentication", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), nil, "")
		require.NoError(t, err)
	})
}

func TestAuthorizeSelfAccessOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorizer, codec, admin, regular := newAuthorizerFixture(t)

	t.Run("owner passes without the permission", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), []string{PermissionManageUsers}, regular.ID.String())
		require.NoError(t, err)
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), []string{PermissionManageUsers}, admin.ID.String())
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin passes on any resource", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, admin.ID), []string{PermissionManageUsers}, regular.ID.String())
		require.NoError(t, err)
	})

	t.Run("empty self ID never matches", func(t *testing.T) {
		_, err := authorizer.Authorize(ctx, accessToken(t, codec, regular.ID), []string{PermissionManageUsers}, "")
		require.ErrorIs(t, err, ErrForbidden)
	})
}
