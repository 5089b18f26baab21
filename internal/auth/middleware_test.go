package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRequireAuth(t *testing.T) {
	t.Parallel()

	authorizer, codec, _, regular := newAuthorizerFixture(t)
	m := NewMiddleware(authorizer)

	r := chi.NewRouter()
	r.With(m.RequireAuth).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		email, ok := GetUserEmailFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(email))
	})

	t.Run("valid bearer token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, codec, regular.ID))
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, regular.Email, rec.Body.String())
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed authorization header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("access token cookie works for browser clients", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: accessToken(t, codec, regular.ID)})
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMiddlewarePermissionGates(t *testing.T) {
	t.Parallel()

	authorizer, codec, admin, regular := newAuthorizerFixture(t)
	m := NewMiddleware(authorizer)

	r := chi.NewRouter()
	r.With(m.Require(PermissionListUsers)).Get("/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(m.RequireSelf("userID", PermissionManageUsers)).Delete("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	do := func(method, path, bearer string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("admin lists users", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do(http.MethodGet, "/users", accessToken(t, codec, admin.ID)))
	})

	t.Run("regular user cannot list users", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/users", accessToken(t, codec, regular.ID)))
	})

	t.Run("regular user deletes own account", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent,
			do(http.MethodDelete, "/users/"+regular.ID.String(), accessToken(t, codec, regular.ID)))
	})

	t.Run("regular user cannot delete another account", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden,
			do(http.MethodDelete, "/users/"+admin.ID.String(), accessToken(t, codec, regular.ID)))
	})

	t.Run("admin deletes any account", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent,
			do(http.MethodDelete, "/users/"+regular.ID.String(), accessToken(t, codec, admin.ID)))
	})
}
