package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-auth-api/internal/logging"
	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

// fakeUserStore is an in-memory CredentialStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *fakeUserStore) Create(_ context.Context, params user.CreateParams) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == params.Email {
			return nil, user.ErrDuplicateEmail
		}
	}

	u := &user.User{
		ID:            uuid.New(),
		Email:         params.Email,
		PasswordHash:  params.PasswordHash,
		Role:          params.Role,
		EmailVerified: params.EmailVerified,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.users[u.ID] = u

	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) Update(_ context.Context, id uuid.UUID, patch user.UpdateParams) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.EmailVerified != nil {
		u.EmailVerified = *patch.EmailVerified
	}
	u.UpdatedAt = time.Now()

	clone := *u
	return &clone, nil
}

// fakeTokenStore is an in-memory token.Store keyed by token hash.
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*token.Token
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*token.Token)}
}

func (s *fakeTokenStore) Create(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.New()
	t.CreatedAt = time.Now()

	clone := *t
	s.tokens[t.TokenHash] = &clone
	return nil
}

func (s *fakeTokenStore) FindOne(_ context.Context, q token.Query) (*token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tokens {
		if tokenMatches(t, q) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, token.ErrTokenNotFound
}

func (s *fakeTokenStore) Delete(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[t.TokenHash]; !ok {
		return token.ErrTokenNotFound
	}
	delete(s.tokens, t.TokenHash)
	return nil
}

func (s *fakeTokenStore) DeleteMany(_ context.Context, q token.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for hash, t := range s.tokens {
		if tokenMatches(t, q) {
			delete(s.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

func tokenMatches(t *token.Token, q token.Query) bool {
	if q.TokenHash != "" && t.TokenHash != q.TokenHash {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	if q.UserID != uuid.Nil && t.UserID != q.UserID {
		return false
	}
	if q.ExcludeBlacklisted && t.Blacklisted {
		return false
	}
	return true
}

// fakeEmailService records sent emails on buffered channels so tests can wait
// for the send goroutines.
type fakeEmailService struct {
	verifications chan sentEmail
	resets        chan sentEmail
}

type sentEmail struct {
	to    string
	token string
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{
		verifications: make(chan sentEmail, 10),
		resets:        make(chan sentEmail, 10),
	}
}

func (s *fakeEmailService) SendVerificationEmail(_ context.Context, toEmail, tokenStr string) error {
	s.verifications <- sentEmail{to: toEmail, token: tokenStr}
	return nil
}

func (s *fakeEmailService) SendPasswordResetEmail(_ context.Context, toEmail, tokenStr string) error {
	s.resets <- sentEmail{to: toEmail, token: tokenStr}
	return nil
}

type serviceFixture struct {
	svc    *Service
	users  *fakeUserStore
	tokens *token.Service
	emails *fakeEmailService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	codec, err := token.NewCodec("paseto", testSecret)
	require.NoError(t, err)

	tokens := token.NewService(newFakeTokenStore(), codec, token.Durations{
		Access:        30 * time.Minute,
		Refresh:       30 * 24 * time.Hour,
		ResetPassword: 10 * time.Minute,
		VerifyEmail:   10 * time.Minute,
	})

	users := newFakeUserStore()
	emails := newFakeEmailService()

	return &serviceFixture{
		svc:    NewService(users, tokens, emails, logging.NewLogger(true)),
		users:  users,
		tokens: tokens,
		emails: emails,
	}
}

func receiveEmail(t *testing.T, ch chan sentEmail) sentEmail {
	t.Helper()

	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
		return sentEmail{}
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	t.Run("creates unverified user with default role", func(t *testing.T) {
		newUser, err := fx.svc.Register(ctx, "New.User@Example.com", "password123")
		require.NoError(t, err)
		require.Equal(t, "new.user@example.com", newUser.Email)
		require.Equal(t, user.RoleUser, newUser.Role)
		require.False(t, newUser.EmailVerified)
		require.NotEmpty(t, newUser.PasswordHash)

		sent := receiveEmail(t, fx.emails.verifications)
		require.Equal(t, "new.user@example.com", sent.to)
		require.NotEmpty(t, sent.token)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := fx.svc.Register(ctx, "new.user@example.com", "password123")
		require.ErrorIs(t, err, user.ErrDuplicateEmail)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := fx.svc.Register(ctx, "not-an-email", "password123")
		require.ErrorIs(t, err, user.ErrInvalidEmailFormat)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := fx.svc.Register(ctx, "short@example.com", "short")
		require.ErrorIs(t, err, user.ErrPasswordTooShort)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	registered, err := fx.svc.Register(ctx, "login@example.com", "password123")
	require.NoError(t, err)

	t.Run("returns user and token pair", func(t *testing.T) {
		loggedIn, tokens, err := fx.svc.Login(ctx, "login@example.com", "password123")
		require.NoError(t, err)
		require.Equal(t, registered.ID, loggedIn.ID)
		require.NotEmpty(t, tokens.Access.Token)
		require.NotEmpty(t, tokens.Refresh.Token)
	})

	t.Run("login does not require a verified email", func(t *testing.T) {
		require.False(t, registered.EmailVerified)
		_, _, err := fx.svc.Login(ctx, "login@example.com", "password123")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := fx.svc.Login(ctx, "login@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := fx.svc.Login(ctx, "nobody@example.com", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, _, err := fx.svc.Login(ctx, "", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	_, err := fx.svc.Register(ctx, "lifecycle@example.com", "password123")
	require.NoError(t, err)

	_, tokens, err := fx.svc.Login(ctx, "lifecycle@example.com", "password123")
	require.NoError(t, err)

	rotated, err := fx.svc.Refresh(ctx, tokens.Refresh.Token)
	require.NoError(t, err)
	require.NotEqual(t, tokens.Refresh.Token, rotated.Refresh.Token)

	// Rotation consumed the original refresh token.
	_, err = fx.svc.Refresh(ctx, tokens.Refresh.Token)
	require.ErrorIs(t, err, token.ErrAuthenticationRequired)

	require.NoError(t, fx.svc.Logout(ctx, rotated.Refresh.Token))

	_, err = fx.svc.Refresh(ctx, rotated.Refresh.Token)
	require.ErrorIs(t, err, token.ErrAuthenticationRequired)
}

func TestLogoutUnknownToken(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture(t)

	err := fx.svc.Logout(context.Background(), "never-issued")
	require.ErrorIs(t, err, token.ErrTokenNotFound)
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	_, err := fx.svc.Register(ctx, "forgot@example.com", "password123")
	require.NoError(t, err)

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		require.NoError(t, fx.svc.ForgotPassword(ctx, "nobody@example.com"))
	})

	t.Run("known email receives a working reset token", func(t *testing.T) {
		require.NoError(t, fx.svc.ForgotPassword(ctx, "forgot@example.com"))

		sent := receiveEmail(t, fx.emails.resets)
		require.Equal(t, "forgot@example.com", sent.to)

		require.NoError(t, fx.svc.ResetPassword(ctx, sent.token, "newpassword456"))

		_, _, err := fx.svc.Login(ctx, "forgot@example.com", "newpassword456")
		require.NoError(t, err)
	})
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	registered, err := fx.svc.Register(ctx, "reset@example.com", "password123")
	require.NoError(t, err)

	_, sessionTokens, err := fx.svc.Login(ctx, "reset@example.com", "password123")
	require.NoError(t, err)

	resetToken, err := fx.tokens.IssueResetPasswordToken(ctx, registered.ID)
	require.NoError(t, err)

	require.NoError(t, fx.svc.ResetPassword(ctx, resetToken, "newpassword456"))

	t.Run("old password stops working", func(t *testing.T) {
		_, _, err := fx.svc.Login(ctx, "reset@example.com", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("new password works", func(t *testing.T) {
		_, _, err := fx.svc.Login(ctx, "reset@example.com", "newpassword456")
		require.NoError(t, err)
	})

	t.Run("reset token is single use", func(t *testing.T) {
		err := fx.svc.ResetPassword(ctx, resetToken, "anotherpassword789")
		require.ErrorIs(t, err, ErrPasswordResetFailed)
	})

	t.Run("existing sessions are revoked", func(t *testing.T) {
		_, err := fx.svc.Refresh(ctx, sessionTokens.Refresh.Token)
		require.ErrorIs(t, err, token.ErrAuthenticationRequired)
	})
}

func TestResetPasswordValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	require.ErrorIs(t, fx.svc.ResetPassword(ctx, "whatever", "short"), user.ErrPasswordTooShort)
	require.ErrorIs(t, fx.svc.ResetPassword(ctx, "bogus-token", "longenough123"), ErrPasswordResetFailed)
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	registered, err := fx.svc.Register(ctx, "verify@example.com", "password123")
	require.NoError(t, err)

	verifyToken, err := fx.tokens.IssueVerifyEmailToken(ctx, registered.ID)
	require.NoError(t, err)

	require.NoError(t, fx.svc.VerifyEmail(ctx, verifyToken))

	updated, err := fx.users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	require.True(t, updated.EmailVerified)

	t.Run("verification token is single use", func(t *testing.T) {
		require.ErrorIs(t, fx.svc.VerifyEmail(ctx, verifyToken), ErrEmailVerificationFailed)
	})

	t.Run("garbage token fails", func(t *testing.T) {
		require.ErrorIs(t, fx.svc.VerifyEmail(ctx, "garbage"), ErrEmailVerificationFailed)
	})
}

func TestSendVerificationEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newServiceFixture(t)

	registered, err := fx.svc.Register(ctx, "resend@example.com", "password123")
	require.NoError(t, err)
	receiveEmail(t, fx.emails.verifications) // registration email

	require.NoError(t, fx.svc.SendVerificationEmail(ctx, registered.ID))

	sent := receiveEmail(t, fx.emails.verifications)
	require.Equal(t, "resend@example.com", sent.to)
	require.NoError(t, fx.svc.VerifyEmail(ctx, sent.token))

	t.Run("already verified", func(t *testing.T) {
		require.ErrorIs(t, fx.svc.SendVerificationEmail(ctx, registered.ID), ErrEmailAlreadyVerified)
	})
}
