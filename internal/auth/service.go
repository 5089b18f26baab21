package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-auth-api/internal/logging"
	"go-auth-api/internal/password"
	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

var (
	ErrInvalidCredentials      = errors.New("incorrect email or password")
	ErrEmailAlreadyVerified    = errors.New("email already verified")
	ErrEmailVerificationFailed = errors.New("email verification failed")
	ErrPasswordResetFailed     = errors.New("password reset failed")
)

// CredentialStore is the user persistence boundary the auth flows need.
// user.Repository satisfies it.
type CredentialStore interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Update(ctx context.Context, id uuid.UUID, patch user.UpdateParams) (*user.User, error)
}

// TokenManager is the token lifecycle boundary. token.Service satisfies it.
type TokenManager interface {
	IssueAuthTokens(ctx context.Context, userID uuid.UUID) (*token.AuthTokens, error)
	IssueResetPasswordToken(ctx context.Context, userID uuid.UUID) (string, error)
	IssueVerifyEmailToken(ctx context.Context, userID uuid.UUID) (string, error)
	Verify(ctx context.Context, tokenStr string, kind token.Type) (*token.Token, error)
	Delete(ctx context.Context, record *token.Token) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID, kind token.Type) (int64, error)
	RotateRefreshTokens(ctx context.Context, refreshToken string) (*token.AuthTokens, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// Service handles authentication business logic
type Service struct {
	users        CredentialStore
	tokens       TokenManager
	emailService EmailService
	logger       *logging.Logger
}

func NewService(users CredentialStore, tokens TokenManager, emailService EmailService, logger *logging.Logger) *Service {
	return &Service{
		users:        users,
		tokens:       tokens,
		emailService: emailService,
		logger:       logger,
	}
}

// Register creates a new user account and sends a verification email.
func (s *Service) Register(ctx context.Context, email, plainPassword string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	if err := user.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := user.ValidatePassword(plainPassword); err != nil {
		return nil, err
	}

	passwordHash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.CreateParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.RoleUser,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verifyToken, err := s.tokens.IssueVerifyEmailToken(ctx, newUser.ID)
	if err != nil {
		// Registration stands; the user can request a new verification email
		s.logger.Warn("failed to issue verification token", "email", email, "error", err)
		return newUser, nil
	}

	// Send verification email in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, verifyToken); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and returns the user with a fresh token pair.
// Every failure collapses into ErrInvalidCredentials so callers cannot probe
// which emails have accounts.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*user.User, *token.AuthTokens, error) {
	if email == "" || plainPassword == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !password.Verify(existingUser.PasswordHash, plainPassword) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.IssueAuthTokens(ctx, existingUser.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return existingUser, tokens, nil
}

// Logout revokes the refresh token. Returns token.ErrTokenNotFound when no
// matching record exists.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// Refresh rotates a refresh token into a new access/refresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.AuthTokens, error) {
	return s.tokens.RotateRefreshTokens(ctx, refreshToken)
}

// ForgotPassword initiates the password reset process.
// Always returns nil to prevent email enumeration attacks.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	resetToken, err := s.tokens.IssueResetPasswordToken(ctx, existingUser.ID)
	if err != nil {
		s.logger.Warn("failed to issue password reset token", "error", err)
		return nil
	}

	// Send password reset email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, existingUser.Email, resetToken); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token and updates the password. All refresh
// tokens for the user are purged so stolen sessions die with the old
// password, and outstanding reset tokens are purged on success.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := user.ValidatePassword(newPassword); err != nil {
		return err
	}

	record, err := s.tokens.Verify(ctx, resetToken, token.TypeResetPassword)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return ErrPasswordResetFailed
		}
		return fmt.Errorf("failed to verify reset token: %w", err)
	}

	existingUser, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrPasswordResetFailed
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.users.Update(ctx, existingUser.ID, user.UpdateParams{PasswordHash: &passwordHash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := s.tokens.DeleteAllForUser(ctx, existingUser.ID, token.TypeResetPassword); err != nil {
		s.logger.Warn("failed to purge reset tokens", "user_id", existingUser.ID, "error", err)
	}

	// Revoke all refresh tokens for security
	if _, err := s.tokens.DeleteAllForUser(ctx, existingUser.ID, token.TypeRefresh); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password reset", "user_id", existingUser.ID, "error", err)
	}

	return nil
}

// SendVerificationEmail issues a fresh verification token for an
// authenticated user. Prior outstanding tokens stay valid until they expire.
func (s *Service) SendVerificationEmail(ctx context.Context, userID uuid.UUID) error {
	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	verifyToken, err := s.tokens.IssueVerifyEmailToken(ctx, existingUser.ID)
	if err != nil {
		return fmt.Errorf("failed to issue verification token: %w", err)
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, existingUser.Email, verifyToken); err != nil {
			s.logger.Warn("failed to send verification email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// VerifyEmail consumes a verification token and marks the email verified.
// Remaining verification tokens for the user are purged on success.
func (s *Service) VerifyEmail(ctx context.Context, verifyToken string) error {
	record, err := s.tokens.Verify(ctx, verifyToken, token.TypeVerifyEmail)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return ErrEmailVerificationFailed
		}
		return fmt.Errorf("failed to verify token: %w", err)
	}

	existingUser, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmailVerificationFailed
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.tokens.DeleteAllForUser(ctx, existingUser.ID, token.TypeVerifyEmail); err != nil {
		s.logger.Warn("failed to purge verification tokens", "user_id", existingUser.ID, "error", err)
	}

	verified := true
	if _, err := s.users.Update(ctx, existingUser.ID, user.UpdateParams{EmailVerified: &verified}); err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return nil
}
