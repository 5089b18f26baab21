package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-auth-api/internal/httputil"
	"go-auth-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey      ContextKey = "user"
	UserIDContextKey    ContextKey = "user_id"
	UserEmailContextKey ContextKey = "user_email"
)

// Middleware guards routes with the authorization decision engine.
type Middleware struct {
	authorizer *Authorizer
}

func NewMiddleware(authorizer *Authorizer) *Middleware {
	return &Middleware{authorizer: authorizer}
}

// RequireAuth gates a route on authentication only.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.require(nil, "")(next)
}

// Require gates a route on the given permissions.
func (m *Middleware) Require(permissions ...string) func(http.Handler) http.Handler {
	return m.require(permissions, "")
}

// RequireSelf gates a route on the given permissions, but lets a principal
// through when the route's URL parameter equals its own ID.
func (m *Middleware) RequireSelf(param string, permissions ...string) func(http.Handler) http.Handler {
	return m.require(permissions, param)
}

func (m *Middleware) require(permissions []string, selfParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, ok := extractBearerToken(r)
			if !ok {
				httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}

			var selfID string
			if selfParam != "" {
				selfID = chi.URLParam(r, selfParam)
			}

			principal, err := m.authorizer.Authorize(r.Context(), bearer, permissions, selfID)
			if err != nil {
				switch {
				case errors.Is(err, ErrUnauthenticated):
					httputil.RespondErrorWithCode(w, "please authenticate", httputil.CodeInvalidToken, http.StatusUnauthorized)
				case errors.Is(err, ErrForbidden):
					httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
				default:
					httputil.RespondErrorWithCode(w, "failed to authorize request", httputil.CodeInternalError, http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, principal)
			ctx = context.WithValue(ctx, UserIDContextKey, principal.ID)
			ctx = context.WithValue(ctx, UserEmailContextKey, principal.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the access token from the Authorization header,
// falling back to the auth cookie for browser clients. The second return is
// false only for a malformed Authorization header; a missing token comes
// back as ("", true) and is rejected by the authorizer.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}

	if cookieToken, err := GetAccessTokenFromCookie(r); err == nil {
		return cookieToken, true
	}

	return "", true
}

// GetUserFromContext extracts the authenticated principal from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	principal, ok := ctx.Value(UserContextKey).(*user.User)
	return principal, ok
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}
